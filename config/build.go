package config

import (
	"sort"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/cache"
	"github.com/jonwraymond/fanout/pool"
	"github.com/jonwraymond/fanout/resilience"
)

// PoolConfig converts the pool section.
func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		Workers:   c.Pool.Workers,
		QueueSize: c.Pool.QueueSize,
		MaxWait:   c.Pool.MaxWait,
	}
}

// HealthPoolConfig sizes the probe pool. Probes never queue behind each
// other for long, so the queue holds one round of checks per worker.
func (c *Config) HealthPoolConfig() pool.Config {
	return pool.Config{
		Workers:   c.Health.Workers,
		QueueSize: c.Health.Workers,
	}
}

// CacheConfig converts the cache section.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Capacity:   c.Cache.Capacity,
		DefaultTTL: c.Cache.TTL,
		MaxTTL:     c.Cache.MaxTTL,
	}
}

// JWTConfig converts the auth section. The secret is returned separately.
func (c *Config) JWTConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:   c.Auth.Issuer,
		Audience: c.Auth.Audience,
		Leeway:   c.Auth.Leeway,
	}
}

// Registry builds the dependency registry. Named dependencies are
// registered up front; any other name gets a policy built from
// DefaultDependency on first use. onChange, when set, observes every
// breaker transition.
func (c *Config) Registry(onChange func(name string, from, to resilience.State)) (*resilience.Registry, error) {
	def := c.DefaultDependency
	reg := resilience.NewRegistry(resilience.WithDefaultPolicy(func(name string) *resilience.Policy {
		return def.Policy(name, onChange)
	}))

	names := make([]string, 0, len(c.Dependencies))
	for name := range c.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := reg.Register(c.Dependencies[name].Policy(name, onChange)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Policy builds the resilience policy for the named dependency.
func (d Dependency) Policy(name string, onChange func(name string, from, to resilience.State)) *resilience.Policy {
	var opts []resilience.PolicyOption

	bc := resilience.CircuitBreakerConfig{
		Name:                 name,
		FailureRateThreshold: d.Breaker.FailureRateThreshold,
		WindowSize:           d.Breaker.WindowSize,
		MinimumCalls:         d.Breaker.MinimumCalls,
		OpenDuration:         d.Breaker.OpenDuration,
		HalfOpenTrials:       d.Breaker.HalfOpenTrials,
		Interval:             d.Breaker.Interval,
		OnStateChange:        onChange,
	}
	switch d.Breaker.Kind {
	case BreakerNone:
	case BreakerGoBreaker:
		opts = append(opts, resilience.WithBreaker(resilience.NewGoBreaker(bc)))
	default:
		opts = append(opts, resilience.WithBreaker(resilience.NewCircuitBreaker(bc)))
	}

	if d.RateLimit.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        d.RateLimit.Rate,
			Burst:       d.RateLimit.Burst,
			WaitOnLimit: d.RateLimit.Wait,
			MaxWait:     d.RateLimit.MaxWait,
		})))
	}
	if d.Bulkhead.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: d.Bulkhead.MaxConcurrent,
			MaxWait:       d.Bulkhead.MaxWait,
		})))
	}
	if d.Timeout > 0 {
		opts = append(opts, resilience.WithTimeout(d.Timeout))
	}

	return resilience.NewPolicy(name, opts...)
}
