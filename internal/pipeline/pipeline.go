// Package pipeline scores a whole source table offline and writes one
// result per row.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/crimson-sun/sieve/internal/engine"
	"github.com/crimson-sun/sieve/internal/logging"
	"github.com/crimson-sun/sieve/internal/model"
	"github.com/crimson-sun/sieve/internal/output"
	"github.com/crimson-sun/sieve/internal/source"
)

// Source yields rows in file order. Next returns io.EOF when exhausted and
// a *source.RowError for a row that could not be parsed.
type Source interface {
	Header() source.Header
	Next() (source.Row, error)
}

// Predictor runs one record through the inference pipeline.
type Predictor interface {
	Predict(ctx context.Context, rec model.LogRecord) (model.Prediction, error)
}

// Summary counts the outcomes of a Classify run.
type Summary struct {
	Rows      int
	Normal    int
	Anomalies int
	Failed    int // pipeline errors, including rows missing a column
	Skipped   int // unparseable rows
}

// Pipeline connects a predictor and an output.
type Pipeline struct {
	predictor Predictor
	output    output.Output
}

// New creates a Pipeline from the given components.
func New(p Predictor, out output.Output) *Pipeline {
	return &Pipeline{predictor: p, output: out}
}

// Classify scores every row of src and writes one result per row. Row-level
// failures become error results; only source or output failures, or ctx
// cancellation, end the run early.
func (p *Pipeline) Classify(ctx context.Context, src Source) (Summary, error) {
	var sum Summary
	header := src.Header()

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}

		var res output.Result
		var rowErr *source.RowError
		switch {
		case errors.As(err, &rowErr):
			sum.Skipped++
			se := engine.InvalidRequest(rowErr.Err)
			res = output.Result{Line: rowErr.Num, Error: se.Message(), Category: se.Category()}
		case err != nil:
			return sum, fmt.Errorf("pipeline read: %w", err)
		default:
			sum.Rows++
			res = p.classifyRow(ctx, header, row, &sum)
		}

		if err := p.output.Write(ctx, res); err != nil {
			return sum, fmt.Errorf("pipeline output: %w", err)
		}
	}
}

func (p *Pipeline) classifyRow(ctx context.Context, h source.Header, row source.Row, sum *Summary) output.Result {
	res := output.Result{Line: row.Num}

	rec, err := row.Record(h)
	if err != nil {
		var missing *source.MissingFieldsError
		se := engine.InvalidRequest(err)
		if errors.As(err, &missing) {
			se = engine.ValidationError(missing.Fields)
		}
		sum.Failed++
		res.Error, res.Category = se.Message(), se.Category()
		return res
	}
	res.Hostname, res.Process, res.Message = rec.Hostname, rec.Process, rec.Message

	pred, err := p.predictor.Predict(ctx, rec)
	if err != nil {
		se, ok := engine.AsStageError(err)
		if !ok {
			se = &engine.StageError{Stage: engine.StagePredict, Err: err}
		}
		sum.Failed++
		res.Error, res.Category = se.Message(), se.Category()
		logging.Ctx(ctx).Debug().Int("line", row.Num).Err(err).Msg("row failed")
		return res
	}

	label := pred.Anomaly
	res.Anomaly = &label
	if label == 1 {
		sum.Anomalies++
	} else {
		sum.Normal++
	}
	return res
}

// Close closes the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
