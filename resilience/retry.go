package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig controls Retry. MaxAttempts counts the first call. Jitter is a
// fraction of each delay, in [0, 1], added or subtracted at random.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         float64
	// RetryIf decides whether a failure is worth another attempt.
	RetryIf func(error) bool
	// OnRetry, if set, runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryConfig suits interactive reads: three attempts within about a
// third of a second.
func DefaultRetryConfig() RetryConfig {
	cfg := RetryConfig{Jitter: 0.1}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Second
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 2
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// DefaultRetryIf retries anything but cancellation and deadline errors.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf turns the error down, attempts
// run out or ctx ends. On failure it returns the last error from fn, or the
// context error if ctx ended first.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg.ApplyDefaults()
	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}
		wait := cfg.jittered(cfg.Backoff(attempt))
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}

// Backoff is the delay after failed attempt n (1-based), before jitter:
// InitialBackoff grown by BackoffFactor per attempt, capped at MaxBackoff.
func (c RetryConfig) Backoff(n int) time.Duration {
	d := float64(c.InitialBackoff)
	for i := 1; i < n && d < float64(c.MaxBackoff); i++ {
		d *= c.BackoffFactor
	}
	return min(time.Duration(d), c.MaxBackoff)
}

func (c RetryConfig) jittered(d time.Duration) time.Duration {
	if c.Jitter <= 0 {
		return d
	}
	spread := float64(d) * c.Jitter
	return max(0, d+time.Duration((rand.Float64()*2-1)*spread))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
