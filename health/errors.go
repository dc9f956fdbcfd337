package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed or panicked.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrBreakersOpen indicates every dependency's circuit is open.
	ErrBreakersOpen = errors.New("health: all circuits open")

	// ErrPoolClosed indicates the worker pool no longer accepts tasks.
	ErrPoolClosed = errors.New("health: worker pool closed")

	// ErrPoolSaturated indicates the worker pool queue is nearly full.
	ErrPoolSaturated = errors.New("health: worker pool saturated")
)
