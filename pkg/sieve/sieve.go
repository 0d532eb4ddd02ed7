package sieve

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/engine"
	"github.com/crimson-sun/sieve/internal/engine/classifier"
	"github.com/crimson-sun/sieve/internal/model"
)

// ErrMissingArtifact is wrapped by New when an artifact file does not exist.
var ErrMissingArtifact = artifact.ErrMissing

// Record is one log entry. Empty strings are valid field values.
type Record struct {
	Hostname string `json:"Hostname"`
	Process  string `json:"Process"`
	Message  string `json:"Message"`
}

// Result is the prediction for one record.
type Result struct {
	Anomaly bool `json:"anomaly"`
	Label   int  `json:"anomaly_prediction"` // 1 = anomaly, 0 = normal
}

// Sieve scores log records against a loaded artifact bundle.
type Sieve struct {
	bundle *engine.Bundle
	engine *engine.Engine
}

// New loads the artifacts. Create once and reuse; loading parses every
// artifact and, for ONNX models, initializes the runtime.
func New(opts ...Option) (*Sieve, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b, err := engine.LoadBundle(resolvePaths(o), classifier.Options{ONNXLibrary: o.onnxLibrary})
	if err != nil {
		return nil, fmt.Errorf("sieve: %w", err)
	}
	return &Sieve{bundle: b, engine: b.Engine()}, nil
}

// Predict scores a single record.
func (s *Sieve) Predict(rec Record) (Result, error) {
	return s.PredictContext(context.Background(), rec)
}

// PredictContext is Predict with a context for log correlation.
func (s *Sieve) PredictContext(ctx context.Context, rec Record) (Result, error) {
	pred, err := s.engine.Predict(ctx, model.LogRecord{
		Hostname: rec.Hostname,
		Process:  rec.Process,
		Message:  rec.Message,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Anomaly: pred.Anomaly == 1, Label: pred.Anomaly}, nil
}

// Close releases the classifier.
func (s *Sieve) Close() error {
	return s.bundle.Close()
}

// ErrorCategory returns the stable category of a Predict error, such as
// "categorical_encoding_failed", or "" when err did not come from the
// pipeline.
func ErrorCategory(err error) string {
	var se *engine.StageError
	if errors.As(err, &se) {
		return se.Category()
	}
	return ""
}
