package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrNotAttempted marks a permitted call that never reached the
	// dependency. Reporting it releases the permit without counting it as a
	// success or a failure.
	ErrNotAttempted = errors.New("resilience: call not attempted")

	// ErrDuplicateDependency is returned when registering a name twice.
	ErrDuplicateDependency = errors.New("resilience: dependency already registered")

	// ErrUnknownDependency is returned for operations on an unregistered name.
	ErrUnknownDependency = errors.New("resilience: unknown dependency")
)
