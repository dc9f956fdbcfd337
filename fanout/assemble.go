package fanout

import (
	"fmt"
	"reflect"
)

// MustLen panics unless r holds exactly n outcomes.
func (r Result) MustLen(n int) {
	if len(r.Outcomes) != n {
		panic(fmt.Sprintf("fanout: aggregation %q has %d outcomes, assembler expects %d", r.Name, len(r.Outcomes), n))
	}
}

// OutcomeAt returns the i-th outcome with its value typed as T. It panics if
// i is out of range or the slot holds another type. A nil slot value yields
// the zero T.
func OutcomeAt[T any](r Result, i int) Outcome[T] {
	if i < 0 || i >= len(r.Outcomes) {
		panic(fmt.Sprintf("fanout: slot %d out of range for aggregation %q with %d outcomes", i, r.Name, len(r.Outcomes)))
	}

	s := r.Outcomes[i]
	var v T
	if s.Value != nil {
		typed, ok := s.Value.(T)
		if !ok {
			panic(fmt.Sprintf("fanout: slot %d (%s) holds %T, not %v", i, s.Task, s.Value, reflect.TypeFor[T]()))
		}
		v = typed
	}

	return Outcome[T]{
		Task:     s.Task,
		Kind:     s.Kind,
		Value:    v,
		Err:      s.Err,
		Duration: s.Duration,
	}
}

// Value returns the i-th slot's value: the actual value on Success, the
// fallback otherwise.
func Value[T any](r Result, i int) T {
	return OutcomeAt[T](r, i).Value
}
