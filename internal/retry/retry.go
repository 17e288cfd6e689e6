package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"slidecast/internal/logging"
	"slidecast/internal/services"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Policy wraps a single unreliable operation with bounded retries and
// exponential backoff. Only errors the classifier marks retryable trigger
// another attempt; everything else fails fast on the first occurrence.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	classify    func(error) bool
	sleeper     func(time.Duration)
	logger      *slog.Logger
}

// Option customizes the policy.
type Option func(*Policy)

// WithMaxAttempts overrides the attempt budget (defaults to 3).
func WithMaxAttempts(attempts int) Option {
	return func(p *Policy) {
		p.maxAttempts = attempts
	}
}

// WithBackoff overrides the backoff delays.
func WithBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(p *Policy) {
		p.baseDelay = baseDelay
		p.maxDelay = maxDelay
	}
}

// WithClassifier overrides how errors are judged retryable.
func WithClassifier(classify func(error) bool) Option {
	return func(p *Policy) {
		if classify != nil {
			p.classify = classify
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(p *Policy) {
		p.sleeper = sleeper
	}
}

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a retry policy.
func New(opts ...Option) *Policy {
	policy := &Policy{
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		classify:    services.IsRetryable,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(policy)
	}
	if policy.maxAttempts <= 0 {
		policy.maxAttempts = 1
	}
	return policy
}

// FromSettings builds a policy from attempt and delay settings expressed in
// whole seconds. Non-positive values fall back to the package defaults.
func FromSettings(maxAttempts, baseDelaySeconds, maxDelaySeconds int, opts ...Option) *Policy {
	settings := make([]Option, 0, len(opts)+2)
	if maxAttempts > 0 {
		settings = append(settings, WithMaxAttempts(maxAttempts))
	}
	if baseDelaySeconds > 0 || maxDelaySeconds > 0 {
		base := defaultBaseDelay
		if baseDelaySeconds > 0 {
			base = time.Duration(baseDelaySeconds) * time.Second
		}
		max := defaultMaxDelay
		if maxDelaySeconds > 0 {
			max = time.Duration(maxDelaySeconds) * time.Second
		}
		settings = append(settings, WithBackoff(base, max))
	}
	settings = append(settings, opts...)
	return New(settings...)
}

// Do invokes fn until it succeeds, exhausts the attempt budget, or fails with
// a non-retryable error. The operation label appears in wrapped errors and
// log records.
func (p *Policy) Do(ctx context.Context, operation string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("retry: nil operation")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", operation, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !p.classify(lastErr) {
			return fmt.Errorf("%s: %w", operation, lastErr)
		}
		if attempt == p.maxAttempts {
			break
		}

		delay := p.backoffDelay(attempt)
		p.logger.Warn("retrying after transient failure",
			logging.String("operation", operation),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", p.maxAttempts),
			logging.Duration("delay", delay),
			logging.Error(lastErr))
		if err := p.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", operation, err)
		}
	}

	return fmt.Errorf("%s: attempts exhausted after %d: %w", operation, p.maxAttempts, lastErr)
}

// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ... plus a
// jitter term growing linearly with the attempt so concurrent workers do not
// retry in lockstep. The cap applies after jitter.
func (p *Policy) backoffDelay(attempt int) time.Duration {
	if p.baseDelay <= 0 {
		return 0
	}
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		if delay > p.maxDelay/2 {
			delay = p.maxDelay
			break
		}
		delay *= 2
	}
	if maxJitter := p.baseDelay / 4 * time.Duration(attempt); maxJitter > 0 {
		delay += time.Duration(rand.Int64N(int64(maxJitter) + 1))
	}
	if p.maxDelay > 0 && delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

func (p *Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
