// Package observe provides the logging, metrics and tracing used by the
// fan-out layer.
//
// Logging is structured and backed by go.uber.org/zap. Metrics and spans use
// OpenTelemetry; exporters are chosen by configuration. Nothing here runs
// work itself: the guard, aggregator and breaker registry call into an
// Instrumentation bundle built from an Observer.
package observe
