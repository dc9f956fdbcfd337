package resilience

import (
	"context"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Permit reports the outcome of a call admitted by a Breaker. A nil error is
// a success. Only the first report counts; later calls are ignored.
type Permit func(err error)

// Breaker is a circuit breaker guarding one dependency.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Allow never blocks; it returns ErrCircuitOpen (possibly wrapped) on rejection.
// - Errors wrapping ErrNotAttempted release the permit without being recorded.
type Breaker interface {
	// Name returns the dependency name this breaker guards.
	Name() string

	// Allow decides whether a call may proceed.
	Allow() (Permit, error)

	// State returns the current state.
	State() State

	// Metrics returns current statistics.
	Metrics() CircuitBreakerMetrics

	// Reset forces the breaker back to closed with an empty window.
	Reset()
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State       State
	Calls       int
	Failures    int
	FailureRate float64
	Rejected    int64
	LastFailure time.Time
	Transition  time.Time

	// RetryAt is when an open breaker admits its first trial call.
	// Zero unless State is StateOpen.
	RetryAt time.Time
}

// Execute runs op through b, reporting its error as the outcome.
func Execute(ctx context.Context, b Breaker, op func(context.Context) error) error {
	permit, err := b.Allow()
	if err != nil {
		return err
	}

	err = op(ctx)
	permit(err)
	return err
}

func noopPermit(error) {}
