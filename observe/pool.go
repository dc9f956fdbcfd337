package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/fanout/pool"
)

// RegisterPoolGauges reports p's occupancy on meter at every collection,
// labelled with poolName. Unregister the returned registration before
// discarding p.
func RegisterPoolGauges(meter metric.Meter, poolName string, p *pool.Pool) (metric.Registration, error) {
	active, err := meter.Int64ObservableGauge("fanout.pool.active",
		metric.WithDescription("Workers running a job"),
		metric.WithUnit("{worker}"))
	if err != nil {
		return nil, err
	}
	queued, err := meter.Int64ObservableGauge("fanout.pool.queued",
		metric.WithDescription("Jobs waiting for a worker"),
		metric.WithUnit("{job}"))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64ObservableCounter("fanout.pool.rejected",
		metric.WithDescription("Submissions refused because the queue was full"),
		metric.WithUnit("{job}"))
	if err != nil {
		return nil, err
	}

	attrs := metric.WithAttributes(attribute.String("pool", poolName))
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		m := p.Metrics()
		o.ObserveInt64(active, int64(m.Active), attrs)
		o.ObserveInt64(queued, int64(m.Queued), attrs)
		o.ObserveInt64(rejected, m.Rejected, attrs)
		return nil
	}, active, queued, rejected)
}
