// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inference
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_predictions_total",
			Help: "Predictions returned, by label",
		},
		[]string{"result"},
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_pipeline_failures_total",
			Help: "Requests aborted by the inference pipeline, by stage",
		},
		[]string{"stage"}, // validate, encode, vectorize, combine, predict
	)

	InternalFaults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sieve_internal_faults_total",
			Help: "Internal consistency faults such as feature row mismatches",
		},
	)

	UnknownCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_unknown_category_total",
			Help: "Categorical values not seen at training time, by feature",
		},
		[]string{"feature"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sieve_pipeline_stage_duration_seconds",
			Help:    "Duration of each inference pipeline stage",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"stage"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sieve_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Delivery
	LinesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sieve_delivery_lines_sent_total",
			Help: "Lines written to the collector",
		},
	)

	RecordsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sieve_delivery_records_skipped_total",
			Help: "Source rows skipped because they could not be read",
		},
	)

	RecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sieve_delivery_records_dropped_total",
			Help: "Lines lost to a failed write",
		},
	)

	ConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sieve_delivery_connect_attempts_total",
			Help: "Connection attempts to the collector, by result",
		},
		[]string{"result"}, // success, failure
	)

	Reconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sieve_delivery_reconnects_total",
			Help: "Sessions re-established after a lost connection",
		},
	)
)

// RecordPrediction counts a successful prediction.
func RecordPrediction(label int) {
	Predictions.WithLabelValues(strconv.Itoa(label)).Inc()
}

// RecordStage observes a stage duration and, when failed, counts the failure.
func RecordStage(stage string, d time.Duration, failed bool) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if failed {
		PipelineFailures.WithLabelValues(stage).Inc()
	}
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordConnectAttempt counts a dial to the collector.
func RecordConnectAttempt(err error) {
	if err != nil {
		ConnectAttempts.WithLabelValues("failure").Inc()
		return
	}
	ConnectAttempts.WithLabelValues("success").Inc()
}
