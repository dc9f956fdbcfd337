package config

import (
	"fmt"
	"time"

	"github.com/jonwraymond/fanout/cache"
	"github.com/jonwraymond/fanout/observe"
)

// Config is the complete fanoutd configuration.
type Config struct {
	Service     Service     `mapstructure:"service" yaml:"service"`
	Pool        Pool        `mapstructure:"pool" yaml:"pool"`
	Aggregation Aggregation `mapstructure:"aggregation" yaml:"aggregation"`
	Health      Health      `mapstructure:"health" yaml:"health"`

	// DefaultDependency applies to dependency names without an entry in
	// Dependencies.
	DefaultDependency Dependency            `mapstructure:"default_dependency" yaml:"default_dependency"`
	Dependencies      map[string]Dependency `mapstructure:"dependencies" yaml:"dependencies"`

	Observe    Observe              `mapstructure:"observe" yaml:"observe"`
	Auth       Auth                 `mapstructure:"auth" yaml:"auth"`
	Cache      Cache                `mapstructure:"cache" yaml:"cache"`
	Simulation map[string]Simulated `mapstructure:"simulation" yaml:"simulation"`
}

// Service identifies the process and its listen address.
type Service struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Version string `mapstructure:"version" yaml:"version"`
	Addr    string `mapstructure:"addr" yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15 seconds
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Pool sizes the shared worker pool.
type Pool struct {
	Workers   int           `mapstructure:"workers" yaml:"workers"`
	QueueSize int           `mapstructure:"queue_size" yaml:"queue_size"`
	MaxWait   time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// Aggregation holds the join-wide defaults.
type Aggregation struct {
	// Deadline bounds a join whose request carries none.
	Deadline time.Duration `mapstructure:"deadline" yaml:"deadline"`

	// TaskTimeout applies to tasks whose dependency has no timeout.
	TaskTimeout time.Duration `mapstructure:"task_timeout" yaml:"task_timeout"`
}

// Health configures the probe runner, which has its own small pool.
type Health struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Dependency configures the protection around one downstream service.
type Dependency struct {
	Breaker   Breaker       `mapstructure:"breaker" yaml:"breaker"`
	RateLimit RateLimit     `mapstructure:"rate_limit" yaml:"rate_limit"`
	Bulkhead  Bulkhead      `mapstructure:"bulkhead" yaml:"bulkhead"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Breaker kinds.
const (
	BreakerNative    = "native"
	BreakerGoBreaker = "gobreaker"
	BreakerNone      = "none"
)

// Breaker configures a circuit breaker. Zero fields take the resilience
// package defaults.
type Breaker struct {
	// Kind selects the engine: native, gobreaker or none.
	// Default: native
	Kind                 string        `mapstructure:"kind" yaml:"kind"`
	FailureRateThreshold float64       `mapstructure:"failure_rate_threshold" yaml:"failure_rate_threshold"`
	WindowSize           int           `mapstructure:"window_size" yaml:"window_size"`
	MinimumCalls         int           `mapstructure:"minimum_calls" yaml:"minimum_calls"`
	OpenDuration         time.Duration `mapstructure:"open_duration" yaml:"open_duration"`
	HalfOpenTrials       int           `mapstructure:"half_open_trials" yaml:"half_open_trials"`
	Interval             time.Duration `mapstructure:"interval" yaml:"interval"`
}

// RateLimit configures a token bucket. A zero Rate disables it.
type RateLimit struct {
	Rate    float64       `mapstructure:"rate" yaml:"rate"`
	Burst   int           `mapstructure:"burst" yaml:"burst"`
	Wait    bool          `mapstructure:"wait" yaml:"wait"`
	MaxWait time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// Bulkhead limits concurrent calls. A zero MaxConcurrent disables it.
type Bulkhead struct {
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	MaxWait       time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// Observe mirrors observe.Config.
type Observe struct {
	Tracing Tracing `mapstructure:"tracing" yaml:"tracing"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
}

// Tracing configures span export.
type Tracing struct {
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
	Exporter  string  `mapstructure:"exporter" yaml:"exporter"`
	SamplePct float64 `mapstructure:"sample_pct" yaml:"sample_pct"`
}

// Metrics configures metric export.
type Metrics struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
}

// Logging configures the zap logger.
type Logging struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Level   string `mapstructure:"level" yaml:"level"`
}

// Auth configures staff token validation.
type Auth struct {
	Issuer   string        `mapstructure:"issuer" yaml:"issuer"`
	Audience string        `mapstructure:"audience" yaml:"audience"`
	Secret   string        `mapstructure:"secret" yaml:"secret"`
	Leeway   time.Duration `mapstructure:"leeway" yaml:"leeway"`
}

// Cache configures read-through caching of downstream lookups. A zero TTL
// disables it.
type Cache struct {
	Capacity int           `mapstructure:"capacity" yaml:"capacity"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxTTL   time.Duration `mapstructure:"max_ttl" yaml:"max_ttl"`
	Codec    string        `mapstructure:"codec" yaml:"codec"`
}

// Simulated shapes a simulated downstream client.
type Simulated struct {
	Latency     time.Duration `mapstructure:"latency" yaml:"latency"`
	Jitter      time.Duration `mapstructure:"jitter" yaml:"jitter"`
	FailureRate float64       `mapstructure:"failure_rate" yaml:"failure_rate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Service: Service{
			Name:            "fanoutd",
			Version:         "dev",
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Pool: Pool{
			Workers:   64,
			QueueSize: 1024,
		},
		Aggregation: Aggregation{
			Deadline:    3 * time.Second,
			TaskTimeout: 2 * time.Second,
		},
		Health: Health{
			Workers: 4,
			Timeout: 2 * time.Second,
		},
		DefaultDependency: Dependency{
			Breaker: Breaker{
				Kind:                 BreakerNative,
				FailureRateThreshold: 0.5,
				WindowSize:           10,
				MinimumCalls:         10,
				OpenDuration:         30 * time.Second,
				HalfOpenTrials:       1,
			},
		},
		Observe: Observe{
			Metrics: Metrics{Enabled: true, Exporter: "prometheus"},
			Logging: Logging{Enabled: true, Level: "info"},
		},
		Cache: Cache{
			Capacity: 10000,
			TTL:      time.Minute,
			Codec:    "msgpack",
		},
	}
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Service.Name == "":
		return invalid("service.name is required")
	case c.Service.Addr == "":
		return invalid("service.addr is required")
	case c.Pool.Workers < 0:
		return invalid("pool.workers must not be negative")
	case c.Pool.MaxWait < 0:
		return invalid("pool.max_wait must not be negative")
	case c.Aggregation.Deadline < 0:
		return invalid("aggregation.deadline must not be negative")
	case c.Aggregation.TaskTimeout < 0:
		return invalid("aggregation.task_timeout must not be negative")
	case c.Health.Workers < 0:
		return invalid("health.workers must not be negative")
	case c.Auth.Secret == "":
		return invalid("auth.secret is required (set FANOUT_AUTH_SECRET)")
	case c.Cache.Capacity < 0 || c.Cache.TTL < 0 || c.Cache.MaxTTL < 0:
		return invalid("cache sizes and TTLs must not be negative")
	}

	if _, err := cache.NewCodec(c.Cache.Codec); err != nil {
		return invalid(fmt.Sprintf("cache.codec %q is not supported", c.Cache.Codec))
	}

	if err := c.DefaultDependency.validate("default_dependency"); err != nil {
		return err
	}
	for name, dep := range c.Dependencies {
		if err := dep.validate("dependencies." + name); err != nil {
			return err
		}
	}

	for name, sim := range c.Simulation {
		if sim.FailureRate < 0 || sim.FailureRate > 1 {
			return invalid(fmt.Sprintf("simulation.%s.failure_rate must be within [0, 1]", name))
		}
		if sim.Latency < 0 || sim.Jitter < 0 {
			return invalid(fmt.Sprintf("simulation.%s latency must not be negative", name))
		}
	}

	obs := c.ObserveConfig()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (d Dependency) validate(path string) error {
	switch d.Breaker.Kind {
	case "", BreakerNative, BreakerGoBreaker, BreakerNone:
	default:
		return invalid(fmt.Sprintf("%s.breaker.kind %q is not one of native, gobreaker, none", path, d.Breaker.Kind))
	}

	switch {
	case d.Breaker.FailureRateThreshold < 0 || d.Breaker.FailureRateThreshold > 1:
		return invalid(path + ".breaker.failure_rate_threshold must be within [0, 1]")
	case d.Breaker.WindowSize < 0 || d.Breaker.MinimumCalls < 0 || d.Breaker.HalfOpenTrials < 0:
		return invalid(path + ".breaker counts must not be negative")
	case d.Breaker.OpenDuration < 0 || d.Breaker.Interval < 0:
		return invalid(path + ".breaker durations must not be negative")
	case d.RateLimit.Rate < 0 || d.RateLimit.Burst < 0:
		return invalid(path + ".rate_limit must not be negative")
	case d.Bulkhead.MaxConcurrent < 0:
		return invalid(path + ".bulkhead.max_concurrent must not be negative")
	case d.Timeout < 0:
		return invalid(path + ".timeout must not be negative")
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

// ObserveConfig converts the observe section.
func (c *Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.Tracing.Enabled,
			Exporter:  c.Observe.Tracing.Exporter,
			SamplePct: c.Observe.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.Metrics.Enabled,
			Exporter: c.Observe.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Observe.Logging.Enabled,
			Level:   c.Observe.Logging.Level,
		},
	}
}
