package observe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoggerContract_With(t *testing.T) {
	assert.NotNil(t, NewNopLogger().With(F("task", "noop")))
}

func TestMetricsContract_NoPanic(t *testing.T) {
	var m Metrics = noopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordBranch(context.Background(), BranchMeta{Task: "noop"}, "success", 10*time.Millisecond)
	})
}

func TestTracerContract_NoPanic(t *testing.T) {
	tracer := newNoopTracer()
	assert.NotPanics(t, func() {
		_, span := tracer.StartBranch(context.Background(), BranchMeta{Task: "noop"})
		tracer.EndSpan(span, "success", nil)
	})
}
