package observe

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jonwraymond/fanout/observe/exporters"
)

func validConfig() Config {
	return Config{
		ServiceName: "fanoutd",
		Version:     "1.0.0",
		Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "stdout"},
		Logging:     LoggingConfig{Enabled: true, Level: "info"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"unknown tracing exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, ErrInvalidTracingExporter},
		{"sample pct above range", func(c *Config) { c.Tracing.SamplePct = 1.5 }, ErrInvalidSamplePct},
		{"sample pct negative", func(c *Config) { c.Tracing.SamplePct = -0.1 }, ErrInvalidSamplePct},
		{"unknown metrics exporter", func(c *Config) { c.Metrics.Exporter = "graphite" }, ErrInvalidMetricsExporter},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel},
		{"disabled sections skip checks", func(c *Config) {
			c.Tracing = TracingConfig{Exporter: "zipkin"}
			c.Metrics = MetricsConfig{Exporter: "graphite"}
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewObserver_DisabledNoop(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "fanoutd"})
	require.NoError(t, err)

	assert.NotNil(t, obs.Tracer())
	assert.NotNil(t, obs.Meter())
	assert.NotNil(t, obs.Logger())
	assert.NoError(t, obs.Shutdown(context.Background()))
}

func TestNewObserver_StdoutExporters(t *testing.T) {
	var buf bytes.Buffer
	obs, err := NewObserver(context.Background(), validConfig(), exporters.WithWriter(&buf))
	require.NoError(t, err)

	_, span := obs.Tracer().Start(context.Background(), "probe")
	span.End()

	require.NoError(t, obs.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "probe")
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrMissingServiceName)
}

func TestInstrumentationFromObserver(t *testing.T) {
	_, err := InstrumentationFromObserver(nil)
	assert.ErrorIs(t, err, ErrNilObserver)

	obs, err := NewObserver(context.Background(), Config{ServiceName: "fanoutd"})
	require.NoError(t, err)

	inst, err := InstrumentationFromObserver(obs)
	require.NoError(t, err)
	assert.NotNil(t, inst.Tracer)
	assert.NotNil(t, inst.Metrics)
	assert.NotNil(t, inst.Logger)
}

func TestNopInstrumentation(t *testing.T) {
	inst := NopInstrumentation()
	ctx, span := inst.Tracer.StartJoin(context.Background(), JoinMeta{Name: "noop"})
	inst.Metrics.RecordJoin(ctx, JoinMeta{Name: "noop"}, 1, 0)
	inst.Metrics.RecordBranch(ctx, BranchMeta{Task: "noop"}, "success", 0)
	inst.Metrics.RecordBreakerTransition(ctx, "noop", "closed", "open")
	inst.Metrics.RecordRejection(ctx, "noop", "saturated")
	inst.Logger.With(F("k", "v")).Info(ctx, "noop")
	inst.Tracer.EndSpan(span, "success", nil)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), sampler(0.25).Description())
}
