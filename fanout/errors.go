package fanout

import "errors"

var (
	// ErrTimeout is the cause recorded on TimedOut outcomes.
	ErrTimeout = errors.New("fanout: deadline exceeded")

	// ErrPanic wraps a value recovered from a panicking callable.
	ErrPanic = errors.New("fanout: branch panicked")

	// ErrDuplicateKey fails an index branch whose list repeats a key.
	ErrDuplicateKey = errors.New("fanout: duplicate key")
)
