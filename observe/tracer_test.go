package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func attrMap(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	out := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		out[string(a.Key)] = a.Value
	}
	return out
}

func TestSpanNames(t *testing.T) {
	assert.Equal(t, "fanout.branch.payment", BranchMeta{Task: "payment"}.SpanName())
	assert.Equal(t, "fanout.join.appointment-detail", JoinMeta{Name: "appointment-detail"}.SpanName())
	assert.Equal(t, "fanout.join", JoinMeta{}.SpanName())
}

func TestBranchMeta_Fields(t *testing.T) {
	fields := BranchMeta{Task: "video", Dependency: "video-call", AggregationID: "id-1"}.Fields()
	assert.Equal(t, []Field{F("task", "video"), F("dependency", "video-call"), F("aggregation_id", "id-1")}, fields)
	assert.Len(t, BranchMeta{Task: "video"}.Fields(), 1)
}

func TestTracer_BranchIsChildOfJoin(t *testing.T) {
	tr, recorder := newRecordingTracer()

	ctx, join := tr.StartJoin(context.Background(), JoinMeta{ID: "id-1", Name: "detail", Branches: 2})
	_, branch := tr.StartBranch(ctx, BranchMeta{Task: "payment", Dependency: "payment", Aggregation: "detail"})
	tr.EndSpan(branch, "success", nil)
	tr.EndSpan(join, "", nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	b, j := spans[0], spans[1]
	assert.Equal(t, "fanout.branch.payment", b.Name())
	assert.Equal(t, j.SpanContext().SpanID(), b.Parent().SpanID())
	assert.Equal(t, codes.Ok, b.Status().Code)

	battrs := attrMap(b)
	assert.Equal(t, "payment", battrs["dependency"].AsString())
	assert.Equal(t, "success", battrs["fanout.outcome"].AsString())

	jattrs := attrMap(j)
	assert.Equal(t, "id-1", jattrs["join.id"].AsString())
	assert.Equal(t, int64(2), jattrs["join.branches"].AsInt64())
}

func TestTracer_ErrorRecording(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartBranch(context.Background(), BranchMeta{Task: "treatment"})
	tr.EndSpan(span, "failed", errors.New("connection refused"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection refused", spans[0].Status().Description)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}
