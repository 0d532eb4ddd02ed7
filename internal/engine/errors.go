package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrShapeMismatch marks feature blocks or artifacts whose dimensions do
// not line up. It always indicates an internal fault, never bad input.
var ErrShapeMismatch = errors.New("shape mismatch")

// Stage names a step of the inference pipeline.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageEncode    Stage = "encode"
	StageVectorize Stage = "vectorize"
	StageCombine   Stage = "combine"
	StagePredict   Stage = "predict"
)

// Error categories reported to clients. The strings are stable.
const (
	CategoryInvalidRequest    = "invalid_request"
	CategoryEncodingFailed    = "categorical_encoding_failed"
	CategoryVectorizingFailed = "message_vectorization_failed"
	CategoryInternal          = "internal_error"
	CategoryPredictionFailed  = "prediction_failed"
)

// StageError aborts a single request. Err carries the operator-facing
// cause; Message is what the client sees.
type StageError struct {
	Stage  Stage
	Err    error
	Fields []string // missing request fields, validate stage only
}

func (e *StageError) Error() string {
	return fmt.Sprintf("engine: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Category maps the stage to its client-facing error category.
func (e *StageError) Category() string {
	switch e.Stage {
	case StageValidate:
		return CategoryInvalidRequest
	case StageEncode:
		return CategoryEncodingFailed
	case StageVectorize:
		return CategoryVectorizingFailed
	case StageCombine:
		return CategoryInternal
	default:
		return CategoryPredictionFailed
	}
}

// Status is the HTTP status for the error.
func (e *StageError) Status() int {
	if e.Stage == StageValidate {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Internal reports a consistency fault in the service itself.
func (e *StageError) Internal() bool {
	return e.Stage == StageCombine
}

// Message is the human-readable error returned to clients.
func (e *StageError) Message() string {
	switch e.Stage {
	case StageValidate:
		if len(e.Fields) > 0 {
			return "Missing required fields: " + strings.Join(e.Fields, ", ")
		}
		return "Invalid request: " + causeText(e.Err)
	case StageEncode:
		return "Categorical encoding failed: " + causeText(e.Err)
	case StageVectorize:
		return "Message vectorization failed: " + causeText(e.Err)
	case StageCombine:
		return "Internal shape mismatch during feature combination"
	default:
		return "Prediction failed: " + causeText(e.Err)
	}
}

func causeText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// ValidationError reports missing request fields. fields keeps the order
// Hostname, Process, Message.
func ValidationError(fields []string) *StageError {
	return &StageError{
		Stage:  StageValidate,
		Err:    fmt.Errorf("missing required fields: %s", strings.Join(fields, ", ")),
		Fields: append([]string(nil), fields...),
	}
}

// InvalidRequest reports a request body that could not be decoded.
func InvalidRequest(err error) *StageError {
	return &StageError{Stage: StageValidate, Err: err}
}

// AsStageError extracts a *StageError from err's chain.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	ok := errors.As(err, &se)
	return se, ok
}
