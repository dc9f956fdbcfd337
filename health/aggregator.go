package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/fanout/fanout"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 5 seconds
	Timeout time.Duration
}

// Aggregator runs registered checkers concurrently as one fan-out
// aggregation, so a checker that hangs or panics is reported as unhealthy
// instead of stalling the probe.
type Aggregator struct {
	config   AggregatorConfig
	runner   *fanout.Aggregator
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string // registration order
}

// NewAggregator creates a health aggregator running checks through runner.
// Give it a pool separate from request traffic so probes still answer when
// the request pool is saturated.
func NewAggregator(runner *fanout.Aggregator, config AggregatorConfig) *Aggregator {
	if runner == nil {
		panic("health: nil runner")
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Aggregator{
		config:   config,
		runner:   runner,
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker under its own name. Registering a name again
// replaces the earlier checker.
func (a *Aggregator) Register(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := checker.Name()
	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// CheckerNames returns the names of all registered checkers.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrCheckerNotFound, name)
	}
	report := a.run(ctx, []string{name}, []Checker{checker})
	return report.Checks[name], nil
}

// Report is the outcome of running every checker.
type Report struct {
	Status   Status
	Checks   map[string]Result
	Order    []string
	Duration time.Duration
}

// CheckAll runs every registered checker concurrently.
func (a *Aggregator) CheckAll(ctx context.Context) Report {
	a.mu.RLock()
	names := make([]string, len(a.order))
	copy(names, a.order)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = a.checkers[name]
	}
	a.mu.RUnlock()

	return a.run(ctx, names, checkers)
}

func (a *Aggregator) run(ctx context.Context, names []string, checkers []Checker) Report {
	branches := make([]fanout.Branch, len(checkers))
	for i, c := range checkers {
		branches[i] = fanout.NewTask(names[i], func(ctx context.Context) (Result, error) {
			return c.Check(ctx), nil
		}, Unhealthy("check did not complete", ErrCheckFailed))
	}

	res := a.runner.Join(ctx, fanout.Request{
		Name:     "health",
		Branches: branches,
		Deadline: a.config.Timeout,
	})

	report := Report{
		Status:   StatusHealthy,
		Checks:   make(map[string]Result, len(names)),
		Order:    names,
		Duration: res.Duration,
	}
	for i, name := range names {
		out := fanout.OutcomeAt[Result](res, i)
		r := out.Value
		switch out.Kind {
		case fanout.TimedOut:
			r = Unhealthy("check timed out", ErrCheckTimeout)
		case fanout.Failed:
			r.Error = errors.Join(ErrCheckFailed, out.Err)
		}
		r.Duration = out.Duration
		report.Checks[name] = r
		report.Status = report.Status.Worst(r.Status)
	}
	return report
}

// Checker returns the aggregator as a single Checker named "aggregate".
func (a *Aggregator) Checker() Checker {
	return NewCheckerFunc("aggregate", func(ctx context.Context) Result {
		report := a.CheckAll(ctx)

		details := make(map[string]any, len(report.Checks))
		for name, r := range report.Checks {
			details[name] = r.Status.String()
		}

		var message string
		switch report.Status {
		case StatusHealthy:
			message = "all checks passed"
		case StatusDegraded:
			message = "some checks degraded"
		default:
			message = "some checks failed"
		}
		return Result{Status: report.Status, Message: message, Details: details}
	})
}
