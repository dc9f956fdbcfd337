package pool

import "errors"

// Sentinel errors for pool operations.
var (
	// ErrSaturated is returned when the queue is full and no slot freed up
	// within MaxWait.
	ErrSaturated = errors.New("pool: queue saturated")

	// ErrClosed is returned when submitting to a closed pool.
	ErrClosed = errors.New("pool: closed")
)
