package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records fan-out execution metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordBranch records one settled branch.
	RecordBranch(ctx context.Context, meta BranchMeta, outcome string, duration time.Duration)

	// RecordJoin records one completed aggregation.
	RecordJoin(ctx context.Context, meta JoinMeta, degraded int, duration time.Duration)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, dependency, from, to string)

	// RecordRejection records a call refused before it ran.
	// Reason is one of "circuit_open", "saturated", "rate_limited", "bulkhead_full".
	RecordRejection(ctx context.Context, dependency, reason string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	branchCount    metric.Int64Counter
	branchDuration metric.Float64Histogram
	joinCount      metric.Int64Counter
	joinDegraded   metric.Int64Counter
	joinDuration   metric.Float64Histogram
	transitions    metric.Int64Counter
	rejections     metric.Int64Counter
}

// NewMetrics creates the fan-out instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	if m.branchCount, err = meter.Int64Counter(
		"fanout.branch.total",
		metric.WithDescription("Settled branches by outcome"),
		metric.WithUnit("{branch}"),
	); err != nil {
		return nil, err
	}

	if m.branchDuration, err = meter.Float64Histogram(
		"fanout.branch.duration_ms",
		metric.WithDescription("Branch settle time in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.joinCount, err = meter.Int64Counter(
		"fanout.join.total",
		metric.WithDescription("Completed aggregations"),
		metric.WithUnit("{join}"),
	); err != nil {
		return nil, err
	}

	if m.joinDegraded, err = meter.Int64Counter(
		"fanout.join.degraded",
		metric.WithDescription("Aggregations with at least one fallback slot"),
		metric.WithUnit("{join}"),
	); err != nil {
		return nil, err
	}

	if m.joinDuration, err = meter.Float64Histogram(
		"fanout.join.duration_ms",
		metric.WithDescription("Aggregation duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.transitions, err = meter.Int64Counter(
		"fanout.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}

	if m.rejections, err = meter.Int64Counter(
		"fanout.rejections",
		metric.WithDescription("Calls refused before running"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordBranch(ctx context.Context, meta BranchMeta, outcome string, duration time.Duration) {
	attrs := append(meta.attributes(), attribute.String("branch.outcome", outcome))
	opt := metric.WithAttributes(attrs...)

	m.branchCount.Add(ctx, 1, opt)
	m.branchDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordJoin(ctx context.Context, meta JoinMeta, degraded int, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("join.name", meta.Name))

	m.joinCount.Add(ctx, 1, opt)
	if degraded > 0 {
		m.joinDegraded.Add(ctx, 1, opt)
	}
	m.joinDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, dependency, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("breaker.from", from),
		attribute.String("breaker.to", to),
	))
}

func (m *metricsImpl) RecordRejection(ctx context.Context, dependency, reason string) {
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("reason", reason),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordBranch(context.Context, BranchMeta, string, time.Duration) {}
func (noopMetrics) RecordJoin(context.Context, JoinMeta, int, time.Duration)       {}
func (noopMetrics) RecordBreakerTransition(context.Context, string, string, string) {}
func (noopMetrics) RecordRejection(context.Context, string, string)                 {}
