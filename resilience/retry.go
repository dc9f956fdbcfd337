package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier per attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay per attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// RetryConfig configures a Retry.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the wait after the first failed attempt.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps any single wait, before jitter.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier applies to BackoffExponential only.
	// Default: 2.0
	Multiplier float64

	// Strategy defaults to BackoffExponential.
	Strategy BackoffStrategy

	// Jitter adds up to a quarter of the delay at random.
	Jitter bool

	// RetryIf reports whether an attempt's error may be retried.
	// Default: Retryable.
	RetryIf func(err error) bool

	// OnRetry is called before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = Retryable
	}
	return c
}

// Retryable reports whether err is worth another attempt. Rejections by a
// breaker, rate limiter or bulkhead and context errors are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrCircuitOpen),
		errors.Is(err, ErrRateLimitExceeded),
		errors.Is(err, ErrBulkheadFull),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// Retry re-runs a failing call with backoff. A task's retries all happen
// inside one guarded attempt, so the breaker sees only the final error.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry.
func NewRetry(config RetryConfig) *Retry {
	return &Retry{config: config.withDefaults()}
}

// Execute calls op until it succeeds, returns a final error, runs out of
// attempts or ctx ends.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		switch {
		case err == nil:
			return nil
		case !r.config.RetryIf(err):
			return err
		case attempt >= r.config.MaxAttempts:
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, attempt, err)
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}
		if werr := sleep(ctx, delay); werr != nil {
			return werr
		}
	}
}

// Do runs op under r and returns the value of the last attempt.
// A nil r runs op once.
func Do[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	if r == nil {
		return op(ctx)
	}

	var value T
	err := r.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	return value, err
}

func (r *Retry) calculateDelay(attempt int) time.Duration {
	c := r.config
	// Computed in float64 and capped before conversion, so large attempts
	// cannot overflow into a negative wait.
	grown := float64(c.InitialDelay)
	switch c.Strategy {
	case BackoffLinear:
		grown *= float64(attempt)
	case BackoffExponential:
		grown *= math.Pow(c.Multiplier, float64(attempt-1))
	}
	delay := time.Duration(min(grown, float64(c.MaxDelay)))

	if c.Jitter && delay >= 4 {
		// #nosec G404 -- timing variance, not security.
		delay += rand.N(delay / 4)
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
