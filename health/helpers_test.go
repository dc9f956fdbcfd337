package health

import (
	"testing"
	"time"

	"github.com/jonwraymond/fanout/fanout"
	"github.com/jonwraymond/fanout/pool"
)

func newTestRunner(t *testing.T) *fanout.Aggregator {
	t.Helper()

	p := pool.New(pool.Config{Workers: 4, QueueSize: 16})
	t.Cleanup(p.Close)
	return fanout.NewAggregator(fanout.NewGuard(p))
}

func newTestAggregator(t *testing.T, timeout time.Duration) *Aggregator {
	t.Helper()
	return NewAggregator(newTestRunner(t), AggregatorConfig{Timeout: timeout})
}
