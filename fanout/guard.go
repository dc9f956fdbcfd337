package fanout

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/jonwraymond/fanout/observe"
	"github.com/jonwraymond/fanout/pool"
	"github.com/jonwraymond/fanout/resilience"
)

// Guard runs tasks on a shared pool under per-dependency policies.
//
// Contract:
//   - Concurrency: safe for concurrent use; one Guard serves every request.
//   - Errors: Run never returns an error and never panics on task failure.
//   - Ownership: the pool and registry are shared, not owned; closing the
//     pool is the caller's job.
type Guard struct {
	pool           *pool.Pool
	registry       *resilience.Registry
	inst           *observe.Instrumentation
	defaultTimeout time.Duration
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithRegistry sets the registry that resolves dependency names to policies.
// Without one, dependency names are recorded but not enforced.
func WithRegistry(r *resilience.Registry) GuardOption {
	return func(g *Guard) {
		g.registry = r
	}
}

// WithInstrumentation sets the telemetry sinks.
// Default: observe.NopInstrumentation()
func WithInstrumentation(inst *observe.Instrumentation) GuardOption {
	return func(g *Guard) {
		g.inst = inst
	}
}

// WithDefaultTimeout sets the timeout for tasks that carry none and whose
// dependency policy carries none.
// Default: 0 (no per-task timeout)
func WithDefaultTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		g.defaultTimeout = d
	}
}

// NewGuard creates a guard running tasks on p. It panics if p is nil.
func NewGuard(p *pool.Pool, opts ...GuardOption) *Guard {
	if p == nil {
		panic("fanout: nil pool")
	}

	g := &Guard{pool: p}
	for _, opt := range opts {
		opt(g)
	}
	if g.inst == nil {
		g.inst = observe.NopInstrumentation()
	}
	return g
}

// Pool returns the guard's worker pool.
func (g *Guard) Pool() *pool.Pool {
	return g.pool
}

// Registry returns the guard's dependency registry, or nil.
func (g *Guard) Registry() *resilience.Registry {
	return g.registry
}

// Instrumentation returns the guard's telemetry sinks.
func (g *Guard) Instrumentation() *observe.Instrumentation {
	return g.inst
}

// Run executes t on the guard's pool and settles it.
//
// An error or panic from the callable yields Failed with the fallback. A
// deadline passing first yields TimedOut with the fallback; the callable's
// context is cancelled and its late result discarded. A task still queued
// when its deadline passes is never started. When t names a dependency, its
// policy is consulted first and an open circuit, exhausted rate limit or
// full bulkhead yields Failed without invoking the callable.
func Run[T any](ctx context.Context, g *Guard, t *Task[T]) Outcome[T] {
	if g == nil {
		panic("fanout: nil guard")
	}
	if t == nil {
		panic("fanout: nil task")
	}

	if t.constant {
		return Outcome[T]{Task: t.Name, Kind: Success, Value: t.Fallback}
	}

	start := time.Now()
	meta := branchMeta(ctx, t.Name, t.Dependency)
	ctx, span := g.inst.Tracer.StartBranch(ctx, meta)

	out, stack := settle(ctx, g, t)
	out.Task = t.Name
	out.Duration = time.Since(start)

	g.inst.Tracer.EndSpan(span, out.Kind.String(), out.Err)
	g.record(ctx, meta, out.Kind, out.Err, out.Duration, stack)
	return out
}

// Protect runs t under the named dependency's policy, overriding any
// dependency the task already names.
func Protect[T any](ctx context.Context, g *Guard, dependency string, t *Task[T]) Outcome[T] {
	if t == nil {
		panic("fanout: nil task")
	}
	guarded := *t
	guarded.Dependency = dependency
	return Run(ctx, g, &guarded)
}

type callResult[T any] struct {
	value        T
	err          error
	stack        []byte
	notAttempted bool
}

func settle[T any](ctx context.Context, g *Guard, t *Task[T]) (Outcome[T], []byte) {
	var policy *resilience.Policy
	if t.Dependency != "" && g.registry != nil {
		policy = g.registry.Get(t.Dependency)
	}

	permit := resilience.Permit(func(error) {})
	if policy != nil {
		p, err := policy.Admit(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return expire(ctx, t, 0, permit), nil
			}
			return failed(t, err), nil
		}
		permit = p
	}

	timeout := timeoutFor(g, t, policy)
	runCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	err := g.pool.Submit(runCtx, func(jobCtx context.Context) {
		done <- call(jobCtx, t, policy)
	})
	if err != nil {
		if errors.Is(err, pool.ErrSaturated) || errors.Is(err, pool.ErrClosed) {
			permit(notAttempted(err))
			return failed(t, err), nil
		}
		// The deadline or the caller ended the wait for queue room.
		return expire(ctx, t, timeout, permit), nil
	}

	select {
	case r := <-done:
		return complete(ctx, runCtx, t, timeout, permit, r)
	case <-runCtx.Done():
		select {
		case r := <-done:
			if r.err == nil {
				return complete(ctx, runCtx, t, timeout, permit, r)
			}
		default:
		}
		return expire(ctx, t, timeout, permit), nil
	}
}

func call[T any](ctx context.Context, t *Task[T], policy *resilience.Policy) (r callResult[T]) {
	if policy != nil {
		release, err := policy.Enter(ctx)
		if err != nil {
			r.err = err
			r.notAttempted = true
			return r
		}
		defer release()
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.err = fmt.Errorf("%w: %v", ErrPanic, rec)
			r.stack = debug.Stack()
		}
	}()

	r.value, r.err = resilience.Do(ctx, t.Retry, t.Call)
	return r
}

func complete[T any](ctx, runCtx context.Context, t *Task[T], timeout time.Duration, permit resilience.Permit, r callResult[T]) (Outcome[T], []byte) {
	switch {
	case r.err == nil:
		permit(nil)
		return Outcome[T]{Kind: Success, Value: r.value}, nil
	case runCtx.Err() != nil:
		// The callable gave up because its context ended.
		return expire(ctx, t, timeout, permit), nil
	case r.notAttempted:
		permit(notAttempted(r.err))
		return failed(t, r.err), nil
	default:
		permit(r.err)
		return failed(t, r.err), r.stack
	}
}

// expire settles a task whose context ended first. Caller cancellation is
// Failed and not held against the dependency; any deadline is TimedOut.
func expire[T any](ctx context.Context, t *Task[T], timeout time.Duration, permit resilience.Permit) Outcome[T] {
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		permit(notAttempted(err))
		return failed(t, err)
	}

	err := ErrTimeout
	if ctx.Err() == nil && timeout > 0 {
		err = fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	permit(err)
	return Outcome[T]{Kind: TimedOut, Value: t.Fallback, Err: err}
}

func failed[T any](t *Task[T], err error) Outcome[T] {
	return Outcome[T]{Kind: Failed, Value: t.Fallback, Err: err}
}

func notAttempted(err error) error {
	return fmt.Errorf("%w: %w", resilience.ErrNotAttempted, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// timeoutFor picks the task's timeout, then the policy's, then the guard's.
func timeoutFor[T any](g *Guard, t *Task[T], policy *resilience.Policy) time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	if policy != nil && policy.Timeout() > 0 {
		return policy.Timeout()
	}
	return g.defaultTimeout
}

func (g *Guard) record(ctx context.Context, meta observe.BranchMeta, kind Kind, cause error, d time.Duration, stack []byte) {
	g.inst.Metrics.RecordBranch(ctx, meta, kind.String(), d)
	if reason := rejectionReason(cause); reason != "" {
		g.inst.Metrics.RecordRejection(ctx, meta.Dependency, reason)
	}

	if kind == Success {
		return
	}

	fields := append(meta.Fields(),
		observe.F("cause", cause),
		observe.F("duration_ms", d.Milliseconds()),
	)
	switch {
	case kind == TimedOut:
		g.inst.Logger.Warn(ctx, "branch timed out", fields...)
	case stack != nil:
		g.inst.Logger.Error(ctx, "branch panicked", append(fields, observe.F("stack", string(stack)))...)
	default:
		g.inst.Logger.Warn(ctx, "branch failed", fields...)
	}
}

func rejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, resilience.ErrBulkheadFull):
		return "bulkhead_full"
	case errors.Is(err, pool.ErrSaturated), errors.Is(err, pool.ErrClosed):
		return "saturated"
	default:
		return ""
	}
}

// OnBreakerStateChange returns a resilience state-change hook that logs and
// counts transitions through inst.
func OnBreakerStateChange(inst *observe.Instrumentation) func(name string, from, to resilience.State) {
	if inst == nil {
		inst = observe.NopInstrumentation()
	}
	return func(name string, from, to resilience.State) {
		ctx := context.Background()
		inst.Metrics.RecordBreakerTransition(ctx, name, from.String(), to.String())
		inst.Logger.Info(ctx, "circuit breaker state changed",
			observe.F("dependency", name),
			observe.F("from", from.String()),
			observe.F("to", to.String()),
		)
	}
}

type joinInfoKey struct{}

type joinInfo struct {
	id   string
	name string
}

func withJoinInfo(ctx context.Context, id, name string) context.Context {
	return context.WithValue(ctx, joinInfoKey{}, joinInfo{id: id, name: name})
}

func branchMeta(ctx context.Context, task, dependency string) observe.BranchMeta {
	meta := observe.BranchMeta{Task: task, Dependency: dependency}
	if info, ok := ctx.Value(joinInfoKey{}).(joinInfo); ok {
		meta.AggregationID = info.id
		meta.Aggregation = info.name
	}
	return meta
}
