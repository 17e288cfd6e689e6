package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"slidecast/internal/retry"
	"slidecast/internal/services"
)

func TestDoRetriesTimeoutUntilBudgetExhausted(t *testing.T) {
	var delays []time.Duration
	policy := retry.New(
		retry.WithMaxAttempts(3),
		retry.WithBackoff(time.Second, 30*time.Second),
		retry.WithSleeper(func(d time.Duration) { delays = append(delays, d) }),
	)

	calls := 0
	err := policy.Do(context.Background(), "narrate slide", func(context.Context) error {
		calls++
		return fmt.Errorf("model call: %w", services.ErrTimeout)
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected wrapped timeout error, got %v", err)
	}

	// Exponential base plus per-attempt jitter of at most base/4 each step.
	bounds := []struct{ min, max time.Duration }{
		{time.Second, 1250 * time.Millisecond},
		{2 * time.Second, 2500 * time.Millisecond},
	}
	if len(delays) != len(bounds) {
		t.Fatalf("expected %d sleeps, got %v", len(bounds), delays)
	}
	for i, b := range bounds {
		if delays[i] < b.min || delays[i] > b.max {
			t.Fatalf("sleep %d: got %v want within [%v, %v]", i, delays[i], b.min, b.max)
		}
	}
}

func TestDoFailsFastOnPermanentError(t *testing.T) {
	policy := retry.New(
		retry.WithMaxAttempts(5),
		retry.WithSleeper(func(time.Duration) { t.Fatal("unexpected sleep") }),
	)

	calls := 0
	permanent := fmt.Errorf("model call: %w", services.ErrPermanent)
	err := policy.Do(context.Background(), "rewrite slide", func(context.Context) error {
		calls++
		return permanent
	})
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestDoStopsOnFirstSuccess(t *testing.T) {
	policy := retry.New(
		retry.WithMaxAttempts(4),
		retry.WithSleeper(func(time.Duration) {}),
	)

	calls := 0
	err := policy.Do(context.Background(), "refine narrations", func(context.Context) error {
		calls++
		if calls < 3 {
			return services.ErrTimeout
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retry.New(
		retry.WithMaxAttempts(10),
		retry.WithSleeper(func(time.Duration) { cancel() }),
	)

	calls := 0
	err := policy.Do(ctx, "narrate slide", func(context.Context) error {
		calls++
		return services.ErrTimeout
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", calls)
	}
}

func TestBackoffCapsAtMaxDelay(t *testing.T) {
	var delays []time.Duration
	policy := retry.New(
		retry.WithMaxAttempts(6),
		retry.WithBackoff(time.Second, 4*time.Second),
		retry.WithSleeper(func(d time.Duration) { delays = append(delays, d) }),
	)

	_ = policy.Do(context.Background(), "narrate slide", func(context.Context) error {
		return services.ErrTimeout
	})

	if len(delays) != 5 {
		t.Fatalf("expected 5 sleeps, got %v", delays)
	}
	for i, d := range delays {
		if d > 4*time.Second {
			t.Fatalf("sleep %d: got %v, exceeds cap", i, d)
		}
	}
	// Once the exponential term reaches the cap, jitter cannot push past it.
	for i, d := range delays[2:] {
		if d != 4*time.Second {
			t.Fatalf("capped sleep %d: got %v want %v", i+2, d, 4*time.Second)
		}
	}
}

func TestDoTransientErrorFailsFast(t *testing.T) {
	policy := retry.New(
		retry.WithMaxAttempts(5),
		retry.WithSleeper(func(time.Duration) { t.Fatal("unexpected sleep") }),
	)

	calls := 0
	serverErr := fmt.Errorf("model call: %w", services.ErrTransient)
	err := policy.Do(context.Background(), "rewrite slide", func(context.Context) error {
		calls++
		return serverErr
	})
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error surfaced, got %v", err)
	}
}
