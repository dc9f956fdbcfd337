package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})

	cfg := rl.Config()
	assert.InDelta(t, 100.0, cfg.Rate, 1e-9)
	assert.Equal(t, 10, cfg.Burst)
	assert.Equal(t, time.Second, cfg.MaxWait)
}

func TestRateLimiter_AllowBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(), "request %d", i)
	}
	assert.False(t, rl.Allow())
}

func TestRateLimiter_AdmitFailFast(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})

	require.NoError(t, rl.Admit(context.Background()))
	assert.ErrorIs(t, rl.Admit(context.Background()), ErrRateLimitExceeded)
}

func TestRateLimiter_WaitForToken(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, WaitOnLimit: true})

	require.NoError(t, rl.Admit(context.Background()))
	start := time.Now()
	require.NoError(t, rl.Admit(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestRateLimiter_WaitExceedsMaxWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, MaxWait: 10 * time.Millisecond})

	require.True(t, rl.Allow())
	err := rl.Wait(context.Background())
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestRateLimiter_WaitContextCancelled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1})
	require.True(t, rl.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrRateLimitExceeded))
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})

	calls := 0
	op := func(context.Context) error {
		calls++
		return nil
	}
	require.NoError(t, rl.Execute(context.Background(), op))
	assert.ErrorIs(t, rl.Execute(context.Background(), op), ErrRateLimitExceeded)
	assert.Equal(t, 1, calls)
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})
	rl.Allow()
	rl.Allow()
	assert.Less(t, rl.Tokens(), 1.0)

	rl.Reset()
	assert.InDelta(t, 2.0, rl.Tokens(), 0.01)
}
