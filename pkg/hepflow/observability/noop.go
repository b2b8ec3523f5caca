package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordModuleProcess does nothing.
func (NoopMetrics) RecordModuleProcess(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordModuleSkip does nothing.
func (NoopMetrics) RecordModuleSkip(_ context.Context, _ string) {}

// RecordEvent does nothing.
func (NoopMetrics) RecordEvent(_ context.Context, _ bool) {}

// RecordJob does nothing.
func (NoopMetrics) RecordJob(_ context.Context, _ bool, _ time.Duration) {}

// RecordPersist does nothing.
func (NoopMetrics) RecordPersist(_ context.Context, _ string, _ error) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
var noopSpan = noop.Span{}

// StartJobSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartJobSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartPhaseSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartPhaseSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartModuleSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartModuleSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
