package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/fanout/pool"
	"github.com/jonwraymond/fanout/resilience"
)

// BreakerChecker reports the circuit state of every registered dependency.
// Any open or half-open circuit is Degraded, since aggregations still answer
// with fallbacks; every circuit open at once is Unhealthy.
type BreakerChecker struct {
	registry *resilience.Registry
}

// NewBreakerChecker creates a checker over r.
func NewBreakerChecker(r *resilience.Registry) *BreakerChecker {
	return &BreakerChecker{registry: r}
}

// Name returns "breakers".
func (c *BreakerChecker) Name() string {
	return "breakers"
}

// Check inspects every breaker.
func (c *BreakerChecker) Check(_ context.Context) Result {
	states := make(map[string]any)
	var open, tripped, total int

	for _, dep := range c.registry.Snapshot() {
		if dep.Breaker == nil {
			continue
		}
		total++
		states[dep.Name] = dep.Breaker.State.String()
		switch dep.Breaker.State {
		case resilience.StateOpen:
			open++
			tripped++
		case resilience.StateHalfOpen:
			tripped++
		}
	}

	switch {
	case total > 0 && open == total:
		return Unhealthy("all circuits open", ErrBreakersOpen).WithDetails(states)
	case tripped > 0:
		return Degraded(fmt.Sprintf("%d of %d circuits not closed", tripped, total)).WithDetails(states)
	default:
		return Healthy(fmt.Sprintf("%d circuits closed", total)).WithDetails(states)
	}
}

// PoolCheckerConfig configures the pool health checker.
type PoolCheckerConfig struct {
	// WarningThreshold is the queue saturation that triggers degraded status.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the queue saturation that triggers unhealthy status.
	// Default: 1.0
	CriticalThreshold float64
}

// PoolChecker reports worker pool saturation.
type PoolChecker struct {
	pool   *pool.Pool
	config PoolCheckerConfig
}

// NewPoolChecker creates a checker over p.
func NewPoolChecker(p *pool.Pool, config PoolCheckerConfig) *PoolChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold > 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold > 1 {
		config.CriticalThreshold = 1.0
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold
	}
	return &PoolChecker{pool: p, config: config}
}

// Name returns "pool".
func (c *PoolChecker) Name() string {
	return "pool"
}

// Check inspects pool saturation.
func (c *PoolChecker) Check(_ context.Context) Result {
	m := c.pool.Metrics()
	saturation := m.Saturation()
	details := map[string]any{
		"workers":    m.Workers,
		"active":     m.Active,
		"queued":     m.Queued,
		"queue_size": m.QueueSize,
		"rejected":   m.Rejected,
		"saturation": saturation,
	}

	switch {
	case m.Closed:
		return Unhealthy("worker pool closed", ErrPoolClosed).WithDetails(details)
	case saturation >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("queue %.0f%% full", saturation*100), ErrPoolSaturated).WithDetails(details)
	case saturation >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("queue %.0f%% full", saturation*100)).WithDetails(details)
	default:
		return Healthy("accepting tasks").WithDetails(details)
	}
}

var (
	_ Checker = (*BreakerChecker)(nil)
	_ Checker = (*PoolChecker)(nil)
)
