package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the hepflow tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("hepflow")

// Job phases used as span names by StartPhaseSpan.
const (
	PhaseEventLoop = "event_loop"
	PhaseFinalize  = "finalize"
	PhasePersist   = "persist"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
//
// Spans are per job, per phase, and per module within the finalize and
// persist phases. The event loop is a single span; per-event work is
// reported through span events and metrics.
type SpanManager interface {
	// StartJobSpan starts a span for the entire job.
	StartJobSpan(ctx context.Context, jobName, runID string) (context.Context, trace.Span)

	// StartPhaseSpan starts a span for one job phase.
	StartPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span)

	// StartModuleSpan starts a span for one module within a phase.
	StartModuleSpan(ctx context.Context, phase, module string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartJobSpan starts a span for the entire job.
func (m *otelSpanManager) StartJobSpan(ctx context.Context, jobName, runID string) (context.Context, trace.Span) {
	return StartJobSpan(ctx, jobName, runID)
}

// StartPhaseSpan starts a span for one job phase.
func (m *otelSpanManager) StartPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "hepflow."+phase,
		trace.WithAttributes(attribute.String("job.phase", phase)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartModuleSpan starts a span for one module within a phase.
func (m *otelSpanManager) StartModuleSpan(ctx context.Context, phase, module string) (context.Context, trace.Span) {
	return StartModuleSpan(ctx, phase, module)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// Convenience functions that operate on the global tracer.
// These are useful for simple cases where you don't need the interface.

// StartJobSpan starts a span for the entire job.
// Uses the global OTel tracer.
func StartJobSpan(ctx context.Context, jobName, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "hepflow.job",
		trace.WithAttributes(
			attribute.String("job.name", jobName),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartModuleSpan starts a span for one module within a phase.
// Uses the global OTel tracer.
func StartModuleSpan(ctx context.Context, phase, module string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "hepflow."+phase+"."+module,
		trace.WithAttributes(
			attribute.String("job.phase", phase),
			attribute.String("module", module),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
