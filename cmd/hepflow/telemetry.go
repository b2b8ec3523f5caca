package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// telemetry collects the job's metrics and spans in process so they can be
// printed after the run. Exporting to a collector is left to programs
// embedding the library.
type telemetry struct {
	reader *sdkmetric.ManualReader
	meters *sdkmetric.MeterProvider
	spans  *tracetest.SpanRecorder
	traces *sdktrace.TracerProvider
}

// setupTelemetry installs global providers for the enabled signals.
func setupTelemetry(metrics, tracing bool) *telemetry {
	t := &telemetry{}
	if metrics {
		t.reader = sdkmetric.NewManualReader()
		t.meters = sdkmetric.NewMeterProvider(sdkmetric.WithReader(t.reader))
		otel.SetMeterProvider(t.meters)
	}
	if tracing {
		t.spans = tracetest.NewSpanRecorder()
		t.traces = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(t.spans))
		otel.SetTracerProvider(t.traces)
	}
	return t
}

// render returns the collected metrics and span timings.
func (t *telemetry) render(ctx context.Context) (string, error) {
	var b strings.Builder
	if t.reader != nil {
		var rm metricdata.ResourceMetrics
		if err := t.reader.Collect(ctx, &rm); err != nil {
			return "", fmt.Errorf("collect metrics: %w", err)
		}
		b.WriteString(heading("metrics") + "\n")
		b.WriteString(table(metricRows(rm)))
	}
	if t.spans != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(heading("spans") + "\n")
		rows := [][]string{{"span", "duration", "status"}}
		for _, s := range t.spans.Ended() {
			rows = append(rows, []string{
				s.Name(),
				formatDuration(s.EndTime().Sub(s.StartTime())),
				s.Status().Code.String(),
			})
		}
		b.WriteString(table(rows))
	}
	return b.String(), nil
}

func metricRows(rm metricdata.ResourceMetrics) [][]string {
	rows := [][]string{{"metric", "attributes", "value"}}
	var body [][]string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					body = append(body, []string{m.Name, attrs(dp.Attributes.ToSlice()), fmt.Sprint(dp.Value)})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					mean := 0.0
					if dp.Count > 0 {
						mean = dp.Sum / float64(dp.Count)
					}
					body = append(body, []string{m.Name, attrs(dp.Attributes.ToSlice()),
						fmt.Sprintf("n=%d mean=%.3g", dp.Count, mean)})
				}
			}
		}
	}
	sort.Slice(body, func(i, j int) bool {
		if body[i][0] != body[j][0] {
			return body[i][0] < body[j][0]
		}
		return body[i][1] < body[j][1]
	})
	return append(rows, body...)
}

func attrs(kvs []attribute.KeyValue) string {
	parts := make([]string, len(kvs))
	for i, kv := range kvs {
		parts[i] = string(kv.Key) + "=" + kv.Value.Emit()
	}
	return strings.Join(parts, " ")
}

func (t *telemetry) shutdown(ctx context.Context) error {
	var errs []error
	if t.meters != nil {
		errs = append(errs, t.meters.Shutdown(ctx))
	}
	if t.traces != nil {
		errs = append(errs, t.traces.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
