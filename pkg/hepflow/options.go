package hepflow

import (
	"log/slog"

	"github.com/randalmurphal/hepflow/pkg/hepflow/observability"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// defaultMaxFailures bounds the per-event failures kept in the Report.
const defaultMaxFailures = 100

// runConfig holds configuration for one job run.
type runConfig struct {
	jobName     string
	runID       string
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	tracing     bool
	output      output.Container
	maxEvents   int64
	maxFailures int
	progress    func(events int64)
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		jobName:     "hepflow",
		logger:      slog.Default(),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		maxFailures: defaultMaxFailures,
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithRunID sets the run identifier. Default: a random UUID.
//
// The run ID keys the job summary in the output container and is attached
// to every log record and span.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithJobName sets the job name reported in traces. Default: "hepflow".
func WithJobName(name string) RunOption {
	return func(c *runConfig) {
		if name != "" {
			c.jobName = name
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
// Module contexts receive it enriched with run_id and module.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
//
// Example:
//
//	otel.SetMeterProvider(provider)
//	report, err := resolved.Run(ctx, src, hepflow.WithMetrics(true))
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry spans for the job, its phases, and
// per-module finalize and persist calls, using the global tracer provider.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracing = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithOutput sets the container that receives module outputs and the job
// summary. Without it, results stay in the modules and the Report.
// Run does not close the container.
func WithOutput(out output.Container) RunOption {
	return func(c *runConfig) {
		c.output = out
	}
}

// WithMaxEvents stops the event loop after n events. Zero means no limit.
// Reaching the limit is a normal end of job, not an abort.
func WithMaxEvents(n int64) RunOption {
	return func(c *runConfig) {
		if n >= 0 {
			c.maxEvents = n
		}
	}
}

// WithMaxFailures bounds the number of per-event failures kept in the
// Report. Further failures are only counted. Default: 100.
func WithMaxFailures(n int) RunOption {
	return func(c *runConfig) {
		if n >= 0 {
			c.maxFailures = n
		}
	}
}

// WithProgress registers a callback invoked after every event with the
// number of events read so far.
func WithProgress(fn func(events int64)) RunOption {
	return func(c *runConfig) {
		c.progress = fn
	}
}
