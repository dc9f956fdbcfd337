package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/fanout/resilience"
)

// Task is one unit of work: a named call plus the value to use when the
// call cannot produce one. Tasks are built per aggregation and never shared.
type Task[T any] struct {
	// Name labels the task in outcomes, logs and metrics.
	Name string

	// Call performs the remote call. It should honor ctx cancellation.
	Call func(ctx context.Context) (T, error)

	// Fallback is returned on Failed and TimedOut outcomes.
	Fallback T

	// Timeout bounds the call including queue time.
	// Default: the dependency's policy timeout, then the guard default.
	Timeout time.Duration

	// Dependency names the resilience policy guarding the call.
	// Default: none (no breaker, limiter or bulkhead).
	Dependency string

	// Retry repeats failed attempts within Timeout.
	// Default: nil (single attempt)
	Retry *resilience.Retry

	constant bool
}

// TaskOption configures a Task.
type TaskOption func(*taskOptions)

type taskOptions struct {
	timeout    time.Duration
	dependency string
	retry      *resilience.Retry
}

// WithTimeout sets the task's deadline.
func WithTimeout(d time.Duration) TaskOption {
	return func(o *taskOptions) {
		o.timeout = d
	}
}

// WithDependency runs the task under the named dependency's policy.
func WithDependency(name string) TaskOption {
	return func(o *taskOptions) {
		o.dependency = name
	}
}

// WithRetry retries failed attempts inside the task's deadline.
func WithRetry(r *resilience.Retry) TaskOption {
	return func(o *taskOptions) {
		o.retry = r
	}
}

// NewTask creates a task. It panics if call is nil.
func NewTask[T any](name string, call func(context.Context) (T, error), fallback T, opts ...TaskOption) *Task[T] {
	if call == nil {
		panic("fanout: nil callable for task " + name)
	}

	var o taskOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &Task[T]{
		Name:       name,
		Call:       call,
		Fallback:   fallback,
		Timeout:    o.timeout,
		Dependency: o.dependency,
		Retry:      o.retry,
	}
}

// Just creates a task that always succeeds with v without touching the pool.
func Just[T any](name string, v T) *Task[T] {
	return &Task[T]{
		Name:     name,
		Call:     func(context.Context) (T, error) { return v, nil },
		Fallback: v,
		constant: true,
	}
}

// NewListTask creates a task returning a list. The fallback is an empty,
// non-nil slice.
func NewListTask[E any](name string, call func(context.Context) ([]E, error), opts ...TaskOption) *Task[[]E] {
	return NewTask(name, call, []E{}, opts...)
}

// NewIndexTask creates a task that turns a list into a map using the key and
// value extractors. A key seen twice fails the branch with ErrDuplicateKey,
// so it settles with fallback like any other failure.
func NewIndexTask[E any, K comparable, V any](
	name string,
	call func(context.Context) ([]E, error),
	key func(E) K,
	value func(E) V,
	fallback map[K]V,
	opts ...TaskOption,
) *Task[map[K]V] {
	indexed := func(ctx context.Context) (map[K]V, error) {
		items, err := call(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[K]V, len(items))
		for _, item := range items {
			k := key(item)
			if _, dup := out[k]; dup {
				return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, k)
			}
			out[k] = value(item)
		}
		return out, nil
	}
	return NewTask(name, indexed, fallback, opts...)
}

// NewGroupTask creates a task that groups a list by key, preserving element
// order within each group.
func NewGroupTask[E any, K comparable](
	name string,
	call func(context.Context) ([]E, error),
	key func(E) K,
	fallback map[K][]E,
	opts ...TaskOption,
) *Task[map[K][]E] {
	grouped := func(ctx context.Context) (map[K][]E, error) {
		items, err := call(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[K][]E)
		for _, item := range items {
			k := key(item)
			out[k] = append(out[k], item)
		}
		return out, nil
	}
	return NewTask(name, grouped, fallback, opts...)
}

// Branch is a task of any value type, as accepted by Join. It is
// implemented by *Task[T].
type Branch interface {
	branchName() string
	valid() bool
	settle(ctx context.Context, g *Guard) Settled
	abandon(kind Kind, err error, d time.Duration) Settled
}

func (t *Task[T]) branchName() string {
	return t.Name
}

func (t *Task[T]) valid() bool {
	return t != nil
}

func (t *Task[T]) settle(ctx context.Context, g *Guard) Settled {
	return Run(ctx, g, t).Settled()
}

func (t *Task[T]) abandon(kind Kind, err error, d time.Duration) Settled {
	return Settled{
		Task:     t.Name,
		Kind:     kind,
		Value:    t.Fallback,
		Err:      err,
		Duration: d,
	}
}

var _ Branch = (*Task[int])(nil)
