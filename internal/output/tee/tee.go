// Package tee copies every result to several outputs.
package tee

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/sieve/internal/output"
)

// Tee is an Output that forwards to each of its members in order. A failing
// member does not stop the others; all failures are reported together.
type Tee []output.Output

// New returns a Tee over outs.
func New(outs ...output.Output) Tee {
	return Tee(outs)
}

func (t Tee) Write(ctx context.Context, r output.Result) error {
	return t.each(func(o output.Output) error { return o.Write(ctx, r) })
}

func (t Tee) Close() error {
	return t.each(output.Output.Close)
}

func (t Tee) each(fn func(output.Output) error) error {
	var errs []error
	for i, o := range t {
		if err := fn(o); err != nil {
			errs = append(errs, fmt.Errorf("tee: output %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
