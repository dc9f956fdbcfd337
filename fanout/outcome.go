package fanout

import "time"

// Kind classifies how a branch settled.
type Kind int

const (
	// Success means the callable returned a value in time.
	Success Kind = iota
	// Failed means the call errored, panicked or was rejected; the fallback
	// is used.
	Failed
	// TimedOut means the deadline passed before the call returned; the
	// fallback is used.
	TimedOut
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome is the settled result of one task.
//
// Value holds the actual value on Success and the task's fallback otherwise.
// Err is nil on Success, the cause on Failed, and wraps ErrTimeout on
// TimedOut.
type Outcome[T any] struct {
	Task     string
	Kind     Kind
	Value    T
	Err      error
	Duration time.Duration
}

// Ok reports whether the outcome carries the actual value.
func (o Outcome[T]) Ok() bool {
	return o.Kind == Success
}

// Settled returns the type-erased form of the outcome.
func (o Outcome[T]) Settled() Settled {
	return Settled{
		Task:     o.Task,
		Kind:     o.Kind,
		Value:    o.Value,
		Err:      o.Err,
		Duration: o.Duration,
	}
}

// Settled is an Outcome with its value type erased, as stored in a Result.
type Settled struct {
	Task     string
	Kind     Kind
	Value    any
	Err      error
	Duration time.Duration
}

// Ok reports whether the outcome carries the actual value.
func (s Settled) Ok() bool {
	return s.Kind == Success
}
