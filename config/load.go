package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FANOUT"

type loadOptions struct {
	file      string
	dotenv    []string
	envPrefix string
}

// Option configures Load.
type Option func(*loadOptions)

// WithFile reads the YAML file at path. A missing file is an error.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithDotEnv loads the given .env files instead of ./.env. Unlike the
// default, a missing file is an error.
func WithDotEnv(paths ...string) Option {
	return func(o *loadOptions) {
		o.dotenv = paths
	}
}

// WithEnvPrefix replaces the FANOUT environment prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// Load builds a validated Config from defaults, the optional YAML file,
// .env files and the environment, later sources overriding earlier ones.
// Values already present in the environment win over .env entries.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadDotEnv(o.dotenv); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.file != "" {
		v.SetConfigFile(o.file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReadConfig, o.file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(paths []string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: .env: %w", ErrReadConfig, err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("%w: %w", ErrReadConfig, err)
	}
	return nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it
// during Unmarshal. Map sections are file-only.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("service.name", d.Service.Name)
	v.SetDefault("service.version", d.Service.Version)
	v.SetDefault("service.addr", d.Service.Addr)
	v.SetDefault("service.shutdown_timeout", d.Service.ShutdownTimeout)

	v.SetDefault("pool.workers", d.Pool.Workers)
	v.SetDefault("pool.queue_size", d.Pool.QueueSize)
	v.SetDefault("pool.max_wait", d.Pool.MaxWait)

	v.SetDefault("aggregation.deadline", d.Aggregation.Deadline)
	v.SetDefault("aggregation.task_timeout", d.Aggregation.TaskTimeout)

	v.SetDefault("health.workers", d.Health.Workers)
	v.SetDefault("health.timeout", d.Health.Timeout)

	dep := d.DefaultDependency
	v.SetDefault("default_dependency.breaker.kind", dep.Breaker.Kind)
	v.SetDefault("default_dependency.breaker.failure_rate_threshold", dep.Breaker.FailureRateThreshold)
	v.SetDefault("default_dependency.breaker.window_size", dep.Breaker.WindowSize)
	v.SetDefault("default_dependency.breaker.minimum_calls", dep.Breaker.MinimumCalls)
	v.SetDefault("default_dependency.breaker.open_duration", dep.Breaker.OpenDuration)
	v.SetDefault("default_dependency.breaker.half_open_trials", dep.Breaker.HalfOpenTrials)
	v.SetDefault("default_dependency.breaker.interval", dep.Breaker.Interval)
	v.SetDefault("default_dependency.rate_limit.rate", dep.RateLimit.Rate)
	v.SetDefault("default_dependency.rate_limit.burst", dep.RateLimit.Burst)
	v.SetDefault("default_dependency.rate_limit.wait", dep.RateLimit.Wait)
	v.SetDefault("default_dependency.rate_limit.max_wait", dep.RateLimit.MaxWait)
	v.SetDefault("default_dependency.bulkhead.max_concurrent", dep.Bulkhead.MaxConcurrent)
	v.SetDefault("default_dependency.bulkhead.max_wait", dep.Bulkhead.MaxWait)
	v.SetDefault("default_dependency.timeout", dep.Timeout)

	v.SetDefault("observe.tracing.enabled", d.Observe.Tracing.Enabled)
	v.SetDefault("observe.tracing.exporter", d.Observe.Tracing.Exporter)
	v.SetDefault("observe.tracing.sample_pct", d.Observe.Tracing.SamplePct)
	v.SetDefault("observe.metrics.enabled", d.Observe.Metrics.Enabled)
	v.SetDefault("observe.metrics.exporter", d.Observe.Metrics.Exporter)
	v.SetDefault("observe.logging.enabled", d.Observe.Logging.Enabled)
	v.SetDefault("observe.logging.level", d.Observe.Logging.Level)

	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.audience", d.Auth.Audience)
	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.leeway", d.Auth.Leeway)

	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.max_ttl", d.Cache.MaxTTL)
	v.SetDefault("cache.codec", d.Cache.Codec)
}
