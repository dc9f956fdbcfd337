package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// BranchMeta describes one guarded branch for telemetry purposes.
type BranchMeta struct {
	Task          string // Task name (required)
	Dependency    string // Guarded dependency (may be empty)
	Aggregation   string // Owning aggregation name (may be empty)
	AggregationID string // Owning aggregation ID (may be empty)
}

// SpanName returns the deterministic span name for this branch.
// Format: fanout.branch.<task>
func (m BranchMeta) SpanName() string {
	return "fanout.branch." + m.Task
}

// Fields returns the log fields identifying the branch.
func (m BranchMeta) Fields() []Field {
	fields := []Field{F("task", m.Task)}
	if m.Dependency != "" {
		fields = append(fields, F("dependency", m.Dependency))
	}
	if m.AggregationID != "" {
		fields = append(fields, F("aggregation_id", m.AggregationID))
	}
	return fields
}

func (m BranchMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("branch.task", m.Task)}
	if m.Dependency != "" {
		attrs = append(attrs, attribute.String("dependency", m.Dependency))
	}
	if m.Aggregation != "" {
		attrs = append(attrs, attribute.String("join.name", m.Aggregation))
	}
	return attrs
}

// JoinMeta describes one aggregation for telemetry purposes.
type JoinMeta struct {
	ID       string
	Name     string
	Branches int
}

// SpanName returns the deterministic span name for this aggregation.
// Format: fanout.join.<name> or fanout.join
func (m JoinMeta) SpanName() string {
	if m.Name != "" {
		return "fanout.join." + m.Name
	}
	return "fanout.join"
}

// Tracer wraps OpenTelemetry tracing with fan-out span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartJoin starts the span covering one aggregation.
	StartJoin(ctx context.Context, meta JoinMeta) (context.Context, trace.Span)

	// StartBranch starts the span covering one branch.
	StartBranch(ctx context.Context, meta BranchMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, outcome string, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartJoin(ctx context.Context, meta JoinMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(
			attribute.String("join.id", meta.ID),
			attribute.String("join.name", meta.Name),
			attribute.Int("join.branches", meta.Branches),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) StartBranch(ctx context.Context, meta BranchMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, outcome string, err error) {
	if outcome != "" {
		span.SetAttributes(attribute.String("fanout.outcome", outcome))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartJoin(ctx context.Context, meta JoinMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) StartBranch(ctx context.Context, meta BranchMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ string, _ error) {
	span.End()
}
