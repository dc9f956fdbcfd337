package fanout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/fanout/observe"
)

// Request describes one aggregation. Branch order defines the positional
// mapping of Result.Outcomes.
type Request struct {
	// Name labels the aggregation in logs, metrics and spans.
	Name string

	// Branches are run concurrently. Duplicate task names are allowed.
	Branches []Branch

	// Deadline bounds the whole aggregation.
	// Default: the aggregator default.
	Deadline time.Duration
}

// Result holds one outcome per branch, in request order.
type Result struct {
	ID       string
	Name     string
	Outcomes []Settled
	Duration time.Duration
}

// Len returns the number of outcomes.
func (r Result) Len() int {
	return len(r.Outcomes)
}

// Degraded returns the task names of outcomes that fell back, in order.
func (r Result) Degraded() []string {
	var names []string
	for _, o := range r.Outcomes {
		if !o.Ok() {
			names = append(names, o.Task)
		}
	}
	return names
}

// Complete reports whether every branch succeeded.
func (r Result) Complete() bool {
	for _, o := range r.Outcomes {
		if !o.Ok() {
			return false
		}
	}
	return true
}

// Aggregator joins guarded branches.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Blocking: Join blocks its caller until every branch settles or the
//     deadline passes.
//   - Errors: Join never returns an error; failures become outcomes.
type Aggregator struct {
	guard    *Guard
	deadline time.Duration
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithDefaultDeadline sets the deadline for requests that carry none.
// Default: 0 (wait for every branch)
func WithDefaultDeadline(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.deadline = d
	}
}

// NewAggregator creates an aggregator running branches through g.
// It panics if g is nil.
func NewAggregator(g *Guard, opts ...AggregatorOption) *Aggregator {
	if g == nil {
		panic("fanout: nil guard")
	}

	a := &Aggregator{guard: g}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Guard returns the aggregator's guard.
func (a *Aggregator) Guard() *Guard {
	return a.guard
}

type indexed struct {
	i int
	s Settled
}

// Join runs every branch concurrently and waits for all of them to settle.
//
// A failing branch never cancels its siblings. When the deadline passes,
// branches still outstanding become TimedOut with their fallback while
// settled ones keep their outcome; when ctx is cancelled they become Failed
// with ctx.Err(). A request with no branches returns an empty result at once.
// Join panics if any branch is nil.
func (a *Aggregator) Join(ctx context.Context, req Request) Result {
	for i, b := range req.Branches {
		if b == nil || !b.valid() {
			panic(fmt.Sprintf("fanout: nil branch at index %d in aggregation %q", i, req.Name))
		}
	}

	start := time.Now()
	res := Result{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Outcomes: make([]Settled, len(req.Branches)),
	}
	if len(req.Branches) == 0 {
		res.Duration = time.Since(start)
		return res
	}

	inst := a.guard.inst
	meta := observe.JoinMeta{ID: res.ID, Name: req.Name, Branches: len(req.Branches)}
	ctx, span := inst.Tracer.StartJoin(ctx, meta)
	ctx = withJoinInfo(ctx, res.ID, req.Name)

	deadline := req.Deadline
	if deadline <= 0 {
		deadline = a.deadline
	}
	joinCtx, cancel := withTimeout(ctx, deadline)
	defer cancel()

	// Buffered so abandoned branches never block.
	results := make(chan indexed, len(req.Branches))
	for i, b := range req.Branches {
		go func() {
			results <- indexed{i: i, s: b.settle(joinCtx, a.guard)}
		}()
	}

	settled := collect(joinCtx, results, res.Outcomes)
	for i, b := range req.Branches {
		if settled[i] {
			continue
		}
		elapsed := time.Since(start)
		if errors.Is(ctx.Err(), context.Canceled) {
			res.Outcomes[i] = b.abandon(Failed, ctx.Err(), elapsed)
		} else {
			res.Outcomes[i] = b.abandon(TimedOut, ErrTimeout, elapsed)
		}
	}

	res.Duration = time.Since(start)
	degraded := res.Degraded()

	inst.Tracer.EndSpan(span, "", nil)
	inst.Metrics.RecordJoin(ctx, meta, len(degraded), res.Duration)
	if len(degraded) > 0 {
		inst.Logger.Warn(ctx, "aggregation degraded",
			observe.F("aggregation", req.Name),
			observe.F("aggregation_id", res.ID),
			observe.F("degraded", degraded),
			observe.F("branches", len(req.Branches)),
			observe.F("duration_ms", res.Duration.Milliseconds()),
		)
	}
	return res
}

// collect fills outcomes from results until every slot settles or ctx ends,
// then takes whatever already arrived. It reports which slots settled.
func collect(ctx context.Context, results <-chan indexed, outcomes []Settled) []bool {
	settled := make([]bool, len(outcomes))
	remaining := len(outcomes)

	put := func(r indexed) {
		outcomes[r.i] = r.s
		settled[r.i] = true
		remaining--
	}

	for remaining > 0 {
		select {
		case r := <-results:
			put(r)
		case <-ctx.Done():
			for remaining > 0 {
				select {
				case r := <-results:
					put(r)
				default:
					return settled
				}
			}
		}
	}
	return settled
}

// Assembler builds a composite from a joined result. Assemblers must be pure.
type Assembler[R any] func(Result) R

// Aggregate joins req and assembles the result.
func Aggregate[R any](ctx context.Context, a *Aggregator, req Request, assemble Assembler[R]) R {
	return assemble(a.Join(ctx, req))
}
