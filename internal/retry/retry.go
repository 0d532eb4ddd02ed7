// Package retry runs an operation a bounded number of times with a fixed
// pause between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	Delay       time.Duration // pause after each failed attempt but the last
}

// DefaultPolicy is 10 attempts, 5 seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 10, Delay: 5 * time.Second}
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option adjusts a single Do call.
type Option func(*settings)

type settings struct {
	onFailure func(attempt, max int, err error)
	sleep     SleepFunc
}

// OnFailure registers a hook called after each failed attempt, before the
// pause. attempt is 1-based.
func OnFailure(fn func(attempt, max int, err error)) Option {
	return func(s *settings) { s.onFailure = fn }
}

// WithSleep replaces the pause between attempts. Tests use it to run
// without real delays.
func WithSleep(fn SleepFunc) Option {
	return func(s *settings) { s.sleep = fn }
}

// Sleep waits for d, returning ctx.Err() if ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls op until it succeeds or MaxAttempts is reached. op receives the
// 1-based attempt number. Exhaustion yields *ExhaustedError; cancellation
// during a pause yields ctx.Err().
func (p Policy) Do(ctx context.Context, op func(attempt int) error, opts ...Option) error {
	s := settings{sleep: Sleep}
	for _, o := range opts {
		o(&s)
	}
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}

	var last error
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = op(attempt)
		if last == nil {
			return nil
		}
		if s.onFailure != nil {
			s.onFailure(attempt, limit, last)
		}
		if attempt == limit {
			break
		}
		if err := s.sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: limit, Last: last}
}
