package resilience

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
)

// GoBreaker adapts a github.com/sony/gobreaker/v2 two-step breaker to the
// Breaker interface.
//
// gobreaker counts outcomes cumulatively per Interval instead of over a
// sliding window; FailureRateThreshold and MinimumCalls drive its trip
// function. It cannot withdraw an issued permit, so a call reported with
// ErrNotAttempted is recorded as a success while closed and as a failure
// while half-open: an untried trial never closes the circuit.
type GoBreaker struct {
	config CircuitBreakerConfig

	mu          sync.RWMutex
	cb          *gobreaker.TwoStepCircuitBreaker[struct{}]
	rejected    atomic.Int64
	lastFailure atomic.Int64
	transition  atomic.Int64
	openedAt    atomic.Int64
}

// NewGoBreaker creates a gobreaker-backed circuit breaker.
func NewGoBreaker(config CircuitBreakerConfig) *GoBreaker {
	config = config.withDefaults()

	b := &GoBreaker{config: config}
	b.transition.Store(time.Now().UnixNano())
	b.cb = b.newEngine()
	return b
}

func (b *GoBreaker) newEngine() *gobreaker.TwoStepCircuitBreaker[struct{}] {
	cfg := b.config
	return gobreaker.NewTwoStepCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenTrials),
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinimumCalls) {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			now := time.Now().UnixNano()
			b.transition.Store(now)
			if to == gobreaker.StateOpen {
				b.openedAt.Store(now)
			}
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, fromGoState(from), fromGoState(to))
			}
		},
	})
}

// Name returns the dependency name.
func (b *GoBreaker) Name() string {
	return b.config.Name
}

// Allow decides whether a call may proceed.
func (b *GoBreaker) Allow() (Permit, error) {
	b.mu.RLock()
	cb := b.cb
	b.mu.RUnlock()

	done, err := cb.Allow()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.rejected.Add(1)
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return nil, err
	}

	trial := cb.State() == gobreaker.StateHalfOpen
	var once sync.Once
	return func(err error) {
		once.Do(func() {
			if errors.Is(err, ErrNotAttempted) {
				done(!trial)
				return
			}
			failed := b.config.IsFailure(err)
			if failed {
				b.lastFailure.Store(time.Now().UnixNano())
			}
			done(!failed)
		})
	}, nil
}

// State returns the current circuit state.
func (b *GoBreaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fromGoState(b.cb.State())
}

// Reset replaces the underlying engine with a fresh closed one.
func (b *GoBreaker) Reset() {
	b.mu.Lock()
	from := fromGoState(b.cb.State())
	b.cb = b.newEngine()
	b.mu.Unlock()

	b.transition.Store(time.Now().UnixNano())
	if from != StateClosed && b.config.OnStateChange != nil {
		b.config.OnStateChange(b.config.Name, from, StateClosed)
	}
}

// Metrics returns current circuit breaker metrics.
func (b *GoBreaker) Metrics() CircuitBreakerMetrics {
	b.mu.RLock()
	state := fromGoState(b.cb.State())
	counts := b.cb.Counts()
	b.mu.RUnlock()

	m := CircuitBreakerMetrics{
		State:       state,
		Calls:       int(counts.Requests),
		Failures:    int(counts.TotalFailures),
		Rejected:    b.rejected.Load(),
		LastFailure: unixTime(b.lastFailure.Load()),
		Transition:  unixTime(b.transition.Load()),
	}
	if counts.Requests > 0 {
		m.FailureRate = float64(counts.TotalFailures) / float64(counts.Requests)
	}
	if state == StateOpen {
		m.RetryAt = unixTime(b.openedAt.Load()).Add(b.config.OpenDuration)
	}
	return m
}

func fromGoState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

func unixTime(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

var _ Breaker = (*GoBreaker)(nil)
