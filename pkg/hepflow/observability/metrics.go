package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records hepflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordModuleProcess records one Process call with its duration and error status.
	RecordModuleProcess(ctx context.Context, module string, duration time.Duration, err error)

	// RecordModuleSkip records a module skipped for one event.
	RecordModuleSkip(ctx context.Context, module string)

	// RecordEvent records one event leaving the module chain.
	RecordEvent(ctx context.Context, complete bool)

	// RecordJob records a job completion.
	RecordJob(ctx context.Context, success bool, duration time.Duration)

	// RecordPersist records the serialization of one module's output.
	RecordPersist(ctx context.Context, module string, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	moduleCalls   metric.Int64Counter
	moduleLatency metric.Float64Histogram
	moduleErrors  metric.Int64Counter
	moduleSkips   metric.Int64Counter
	events        metric.Int64Counter
	jobs          metric.Int64Counter
	jobLatency    metric.Float64Histogram
	persists      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("hepflow")

	moduleCalls, err := meter.Int64Counter("hepflow.module.process",
		metric.WithDescription("Number of module Process calls"),
	)
	if err != nil {
		return nil, err
	}

	moduleLatency, err := meter.Float64Histogram("hepflow.module.latency_us",
		metric.WithDescription("Module Process latency in microseconds"),
		metric.WithUnit("us"),
	)
	if err != nil {
		return nil, err
	}

	moduleErrors, err := meter.Int64Counter("hepflow.module.errors",
		metric.WithDescription("Number of module Process errors"),
	)
	if err != nil {
		return nil, err
	}

	moduleSkips, err := meter.Int64Counter("hepflow.module.skips",
		metric.WithDescription("Number of module calls skipped after an upstream failure"),
	)
	if err != nil {
		return nil, err
	}

	events, err := meter.Int64Counter("hepflow.events",
		metric.WithDescription("Number of events processed"),
	)
	if err != nil {
		return nil, err
	}

	jobs, err := meter.Int64Counter("hepflow.job.runs",
		metric.WithDescription("Number of job runs"),
	)
	if err != nil {
		return nil, err
	}

	jobLatency, err := meter.Float64Histogram("hepflow.job.latency_ms",
		metric.WithDescription("Job latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	persists, err := meter.Int64Counter("hepflow.output.persists",
		metric.WithDescription("Number of module output serializations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		moduleCalls:   moduleCalls,
		moduleLatency: moduleLatency,
		moduleErrors:  moduleErrors,
		moduleSkips:   moduleSkips,
		events:        events,
		jobs:          jobs,
		jobLatency:    jobLatency,
		persists:      persists,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordModuleProcess records a module Process call.
func (m *otelMetrics) RecordModuleProcess(ctx context.Context, module string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("module", module),
	}

	m.moduleCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.moduleLatency.Record(ctx, float64(duration.Microseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.moduleErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordModuleSkip records a skipped module call.
func (m *otelMetrics) RecordModuleSkip(ctx context.Context, module string) {
	m.moduleSkips.Add(ctx, 1, metric.WithAttributes(attribute.String("module", module)))
}

// RecordEvent records one processed event.
func (m *otelMetrics) RecordEvent(ctx context.Context, complete bool) {
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.Bool("complete", complete)))
}

// RecordJob records a job run.
func (m *otelMetrics) RecordJob(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.jobs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.jobLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordPersist records a module output serialization.
func (m *otelMetrics) RecordPersist(ctx context.Context, module string, err error) {
	m.persists.Add(ctx, 1, metric.WithAttributes(
		attribute.String("module", module),
		attribute.Bool("success", err == nil),
	))
}
