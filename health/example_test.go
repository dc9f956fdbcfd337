package health_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/fanout/fanout"
	"github.com/jonwraymond/fanout/health"
	"github.com/jonwraymond/fanout/pool"
	"github.com/jonwraymond/fanout/resilience"
)

func ExampleAggregator_CheckAll() {
	requests := pool.New(pool.Config{Workers: 4})
	defer requests.Close()
	probes := pool.New(pool.Config{Workers: 2})
	defer probes.Close()

	registry := resilience.NewRegistry()
	registry.Get("account")

	agg := health.NewAggregator(fanout.NewAggregator(fanout.NewGuard(probes)), health.AggregatorConfig{Timeout: time.Second})
	agg.Register(health.NewBreakerChecker(registry))
	agg.Register(health.NewPoolChecker(requests, health.PoolCheckerConfig{}))

	report := agg.CheckAll(context.Background())
	fmt.Println(report.Status)
	for _, name := range report.Order {
		fmt.Println(name, report.Checks[name].Status, report.Checks[name].Message)
	}
	// Output:
	// healthy
	// breakers healthy 1 circuits closed
	// pool healthy accepting tasks
}
