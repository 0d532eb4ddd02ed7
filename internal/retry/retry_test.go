package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// recordSleep returns a SleepFunc that records requested delays.
func recordSleep(delays *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	calls := 0
	err := Policy{MaxAttempts: 3, Delay: time.Second}.Do(context.Background(), func(int) error {
		calls++
		return nil
	}, WithSleep(recordSleep(&delays)))

	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 || len(delays) != 0 {
		t.Errorf("calls=%d delays=%v, want 1 call and no pause", calls, delays)
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	var failures []int
	err := Policy{MaxAttempts: 5, Delay: 5 * time.Second}.Do(context.Background(), func(attempt int) error {
		if attempt < 3 {
			return fmt.Errorf("refused %d", attempt)
		}
		return nil
	},
		WithSleep(recordSleep(&delays)),
		OnFailure(func(attempt, max int, err error) {
			if max != 5 {
				t.Errorf("max = %d, want 5", max)
			}
			failures = append(failures, attempt)
		}),
	)

	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(failures) != 2 || failures[0] != 1 || failures[1] != 2 {
		t.Errorf("failures = %v, want [1 2]", failures)
	}
	if len(delays) != 2 || delays[0] != 5*time.Second {
		t.Errorf("delays = %v, want two 5s pauses", delays)
	}
}

func TestDoExhausted(t *testing.T) {
	var delays []time.Duration
	boom := errors.New("connection refused")
	calls := 0

	err := Policy{MaxAttempts: 10, Delay: 5 * time.Second}.Do(context.Background(), func(int) error {
		calls++
		return boom
	}, WithSleep(recordSleep(&delays)))

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected *ExhaustedError, got %v", err)
	}
	if ex.Attempts != 10 || calls != 10 {
		t.Errorf("attempts=%d calls=%d, want 10", ex.Attempts, calls)
	}
	if !errors.Is(err, boom) {
		t.Error("ExhaustedError should unwrap to the last failure")
	}
	if len(delays) != 9 {
		t.Errorf("got %d pauses, want 9 (none after the last attempt)", len(delays))
	}
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(int) error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) || ex.Attempts != 1 {
		t.Errorf("err = %v", err)
	}
}

func TestDoCancelledDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Policy{MaxAttempts: 5, Delay: time.Hour}.Do(ctx, func(int) error {
		calls++
		cancel()
		return errors.New("down")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
