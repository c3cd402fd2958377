package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	notified := 0
	err := do(context.Background(), func() error {
		calls++
		return nil
	}, func(error, time.Duration) { notified++ }, time.Millisecond, time.Millisecond)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if notified != 0 {
		t.Errorf("notify fired %d times, want 0", notified)
	}
}

func TestDo_RecoversOnSecondAttempt(t *testing.T) {
	calls := 0
	notified := 0
	err := do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}, func(error, time.Duration) { notified++ }, time.Millisecond, time.Millisecond)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if notified != 1 {
		t.Errorf("notify fired %d times, want 1", notified)
	}
}

func TestDo_ExhaustionSurfacesFinalError(t *testing.T) {
	final := errors.New("attempt 3 failed")
	calls := 0
	notified := 0
	err := do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("earlier failure")
		}
		return final
	}, func(error, time.Duration) { notified++ }, time.Millisecond, time.Millisecond)

	if !errors.Is(err, final) {
		t.Fatalf("error = %v, want the final attempt's error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// One retry event per retry, not per attempt.
	if notified != 2 {
		t.Errorf("notify fired %d times, want 2", notified)
	}
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := do(ctx, func() error {
		calls++
		cancel()
		return errors.New("fail")
	}, nil, 50*time.Millisecond, 50*time.Millisecond)

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
