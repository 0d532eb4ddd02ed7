// Package engine runs the inference pipeline for one log record:
// categorical encoding, message vectorization, concatenation and
// classification. An Engine holds only read-only artifacts and is safe for
// concurrent use.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/crimson-sun/sieve/internal/engine/encoder"
	"github.com/crimson-sun/sieve/internal/engine/feature"
	"github.com/crimson-sun/sieve/internal/logging"
	"github.com/crimson-sun/sieve/internal/metrics"
	"github.com/crimson-sun/sieve/internal/model"
)

// CategoricalEncoder encodes [Hostname, Process].
type CategoricalEncoder interface {
	Encode(values []string) encoder.Result
	Width() int
}

// TextVectorizer turns a message into a 1×Width() row.
type TextVectorizer interface {
	Vectorize(text string) (feature.Matrix, error)
	Width() int
}

// Classifier labels a combined feature row.
type Classifier interface {
	Predict(features feature.Matrix) (int, error)
}

// Trace describes how a feature row was built.
type Trace struct {
	Fallback bool     // categorical block replaced by zeros
	Unknown  []string // features with unseen values
}

// Engine orchestrates the encode → vectorize → combine → predict pipeline.
type Engine struct {
	encoder    CategoricalEncoder
	vectorizer TextVectorizer
	classifier Classifier
}

// New creates an Engine with the provided components.
func New(enc CategoricalEncoder, vec TextVectorizer, cls Classifier) *Engine {
	return &Engine{encoder: enc, vectorizer: vec, classifier: cls}
}

// Combine builds the 1×(C+V) feature row for rec. An unseen category is not
// an error: the categorical block becomes all zeros and Trace records it.
func (e *Engine) Combine(rec model.LogRecord) (feature.Matrix, Trace, error) {
	var trace Trace

	start := time.Now()
	res := e.encoder.Encode(rec.Categorical())
	var cat feature.Matrix
	switch res.Kind {
	case encoder.Encoded:
		cat = res.Vector
	case encoder.UnknownCategory:
		cat = res.Fallback()
		trace.Fallback = true
		trace.Unknown = res.Unknown
		for _, f := range res.Unknown {
			metrics.UnknownCategories.WithLabelValues(f).Inc()
		}
	default:
		metrics.RecordStage(string(StageEncode), time.Since(start), true)
		return feature.Matrix{}, trace, &StageError{Stage: StageEncode, Err: encodeCause(res)}
	}
	metrics.RecordStage(string(StageEncode), time.Since(start), false)

	start = time.Now()
	msg, err := e.vectorizer.Vectorize(rec.Message)
	metrics.RecordStage(string(StageVectorize), time.Since(start), err != nil)
	if err != nil {
		return feature.Matrix{}, trace, &StageError{Stage: StageVectorize, Err: err}
	}

	start = time.Now()
	combined, err := feature.HStack(cat, msg)
	metrics.RecordStage(string(StageCombine), time.Since(start), err != nil)
	if err != nil {
		return feature.Matrix{}, trace, &StageError{
			Stage: StageCombine,
			Err:   fmt.Errorf("%w: %w", ErrShapeMismatch, err),
		}
	}
	return combined, trace, nil
}

func encodeCause(res encoder.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return fmt.Errorf("encoder returned %v", res.Kind)
}

// Predict runs the full pipeline for one record. Every failure is a
// *StageError naming the stage that aborted the request.
func (e *Engine) Predict(ctx context.Context, rec model.LogRecord) (model.Prediction, error) {
	log := logging.Ctx(ctx)

	x, trace, err := e.Combine(rec)
	if trace.Fallback {
		log.Debug().
			Strs("unknown", trace.Unknown).
			Msg("unseen categorical values, using zero encoding")
	}
	if err != nil {
		e.logFailure(ctx, err)
		return model.Prediction{}, err
	}

	start := time.Now()
	label, err := e.classifier.Predict(x)
	if err == nil && label != 0 && label != 1 {
		err = fmt.Errorf("classifier returned label %d", label)
	}
	metrics.RecordStage(string(StagePredict), time.Since(start), err != nil)
	if err != nil {
		se := &StageError{Stage: StagePredict, Err: err}
		e.logFailure(ctx, se)
		return model.Prediction{}, se
	}

	metrics.RecordPrediction(label)
	return model.Prediction{Anomaly: label}, nil
}

func (e *Engine) logFailure(ctx context.Context, err error) {
	log := logging.Ctx(ctx)
	se, ok := AsStageError(err)
	if !ok {
		log.Error().Err(err).Msg("inference failed")
		return
	}
	ev := log.Error().Err(se.Err).Str("stage", string(se.Stage)).Str("category", se.Category())
	if se.Internal() {
		metrics.InternalFaults.Inc()
		ev = ev.Bool("alert", true)
	}
	ev.Msg("inference failed")
}
