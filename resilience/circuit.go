package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the guarded dependency.
	Name string

	// FailureRateThreshold is the failure ratio (0, 1] at which the circuit
	// opens.
	// Default: 0.5
	FailureRateThreshold float64

	// WindowSize is the number of most recent outcomes the failure rate is
	// computed over.
	// Default: 10
	WindowSize int

	// MinimumCalls is the number of recorded outcomes required before the
	// failure rate is evaluated. Clamped to WindowSize.
	// Default: WindowSize
	MinimumCalls int

	// OpenDuration is how long the circuit stays open before admitting trial
	// calls.
	// Default: 30 seconds
	OpenDuration time.Duration

	// HalfOpenTrials is the number of trial calls admitted while half-open,
	// and the number of trial successes required to close again.
	// Default: 1
	HalfOpenTrials int

	// Interval is the closed-state count reset period. Only the gobreaker
	// engine uses it; the native breaker slides over WindowSize instead.
	// Default: 0 (never reset while closed)
	Interval time.Duration

	// OnStateChange is called when the circuit state changes. It runs with
	// the breaker's lock held and must not call back into the breaker.
	OnStateChange func(name string, from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 1 {
		c.FailureRateThreshold = 0.5
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 10
	}
	if c.MinimumCalls <= 0 || c.MinimumCalls > c.WindowSize {
		c.MinimumCalls = c.WindowSize
	}
	if c.OpenDuration <= 0 {
		c.OpenDuration = 30 * time.Second
	}
	if c.HalfOpenTrials <= 0 {
		c.HalfOpenTrials = 1
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	return c
}

// CircuitBreaker implements the circuit breaker pattern over a sliding
// window of the last WindowSize call outcomes.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu         sync.Mutex
	state      State
	generation uint64

	// ring buffer of outcomes, true = failure
	window   []bool
	next     int
	calls    int
	failures int

	openedAt    time.Time
	transition  time.Time
	lastFailure time.Time
	rejected    int64

	trials         int
	trialSuccesses int
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	config = config.withDefaults()

	return &CircuitBreaker{
		config:     config,
		state:      StateClosed,
		window:     make([]bool, config.WindowSize),
		transition: time.Now(),
	}
}

// Name returns the dependency name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Config returns the effective configuration.
func (cb *CircuitBreaker) Config() CircuitBreakerConfig {
	return cb.config
}

// Allow decides whether a call may proceed. On success the returned Permit
// must be called exactly once with the call's error.
func (cb *CircuitBreaker) Allow() (Permit, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		cb.rejected++
		return nil, ErrCircuitOpen
	case StateHalfOpen:
		if cb.trials >= cb.config.HalfOpenTrials {
			cb.rejected++
			return nil, ErrCircuitOpen
		}
		cb.trials++
	}

	generation := cb.generation
	var once sync.Once
	return func(err error) {
		once.Do(func() { cb.afterRequest(generation, err) })
	}, nil
}

// Execute runs the operation through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	return Execute(ctx, cb, op)
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setStateLocked(StateClosed)
}

func (cb *CircuitBreaker) afterRequest(generation uint64, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// Outcomes admitted under an earlier state do not count.
	if generation != cb.generation {
		return
	}

	if errors.Is(err, ErrNotAttempted) {
		if cb.state == StateHalfOpen && cb.trials > 0 {
			cb.trials--
		}
		return
	}

	isFailure := cb.config.IsFailure(err)
	if isFailure {
		cb.lastFailure = time.Now()
	}

	switch cb.state {
	case StateClosed:
		cb.recordLocked(isFailure)
		if cb.calls >= cb.config.MinimumCalls && cb.failureRateLocked() >= cb.config.FailureRateThreshold {
			cb.setStateLocked(StateOpen)
		}

	case StateHalfOpen:
		if isFailure {
			// Failed during probe, go back to open
			cb.setStateLocked(StateOpen)
			return
		}
		cb.trialSuccesses++
		if cb.trialSuccesses >= cb.config.HalfOpenTrials {
			cb.setStateLocked(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) recordLocked(isFailure bool) {
	if cb.calls == len(cb.window) {
		// Evict the oldest outcome
		if cb.window[cb.next] {
			cb.failures--
		}
	} else {
		cb.calls++
	}

	cb.window[cb.next] = isFailure
	if isFailure {
		cb.failures++
	}
	cb.next = (cb.next + 1) % len(cb.window)
}

func (cb *CircuitBreaker) failureRateLocked() float64 {
	if cb.calls == 0 {
		return 0
	}
	return float64(cb.failures) / float64(cb.calls)
}

func (cb *CircuitBreaker) clearWindowLocked() {
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.next = 0
	cb.calls = 0
	cb.failures = 0
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.OpenDuration {
		cb.setStateLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setStateLocked(state State) {
	from := cb.state
	now := time.Now()

	cb.state = state
	cb.generation++
	cb.transition = now
	cb.trials = 0
	cb.trialSuccesses = 0

	switch state {
	case StateOpen:
		cb.openedAt = now
	case StateClosed:
		cb.clearWindowLocked()
	}

	if from != state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, state)
	}
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	m := CircuitBreakerMetrics{
		State:       cb.currentStateLocked(),
		Calls:       cb.calls,
		Failures:    cb.failures,
		FailureRate: cb.failureRateLocked(),
		Rejected:    cb.rejected,
		LastFailure: cb.lastFailure,
		Transition:  cb.transition,
	}
	if m.State == StateOpen {
		m.RetryAt = cb.openedAt.Add(cb.config.OpenDuration)
	}
	return m
}

var _ Breaker = (*CircuitBreaker)(nil)
