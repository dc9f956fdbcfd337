// Package health reports whether the fan-out service can answer requests.
//
// A Checker reports Healthy, Degraded or Unhealthy. BreakerChecker watches
// the dependency circuit breakers and PoolChecker watches worker pool
// saturation. Aggregator runs every checker as one fanout aggregation: a
// checker that panics or overruns the probe timeout settles as Unhealthy
// while the others still report.
//
// Degraded means requests are answered with fallback values for some
// dependencies. Readiness treats it as ready; only Unhealthy answers 503.
//
//	agg := health.NewAggregator(runner, health.AggregatorConfig{Timeout: 2 * time.Second})
//	agg.Register(health.NewBreakerChecker(registry))
//	agg.Register(health.NewPoolChecker(requestPool, health.PoolCheckerConfig{}))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
