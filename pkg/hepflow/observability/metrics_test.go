package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	// Save the original provider
	originalProvider := otel.GetMeterProvider()

	// Set test provider
	otel.SetMeterProvider(provider)

	// Return cleanup function
	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	// NewMetricsRecorder uses the global provider
	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	// Should not be a noop (since we set up a real provider)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

// sumFor returns the value of the int64 sum datapoint carrying attribute key=value.
func sumFor(t *testing.T, rm *metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	metric := findMetric(rm, name)
	require.NotNil(t, metric, "metric %s not found", name)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")

	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == key && attr.Value.Emit() == value {
				return dp.Value
			}
		}
	}
	return 0
}

func TestRecordModuleProcess(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	// Create a fresh metrics instance using the test provider
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	m.RecordModuleProcess(ctx, "jets", 50*time.Microsecond, nil)
	m.RecordModuleProcess(ctx, "jets", 70*time.Microsecond, nil)
	m.RecordModuleProcess(ctx, "muons", 10*time.Microsecond, errors.New("bad muon"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumFor(t, rm, "hepflow.module.process", "module", "jets"))
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.module.process", "module", "muons"))
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.module.errors", "module", "muons"))
	assert.Equal(t, int64(0), sumFor(t, rm, "hepflow.module.errors", "module", "jets"))

	latency := findMetric(rm, "hepflow.module.latency_us")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	assert.NotEmpty(t, hist.DataPoints)
}

func TestRecordModuleSkipAndEvent(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordModuleSkip(ctx, "zpeak")
	m.RecordEvent(ctx, true)
	m.RecordEvent(ctx, true)
	m.RecordEvent(ctx, false)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.module.skips", "module", "zpeak"))
	assert.Equal(t, int64(2), sumFor(t, rm, "hepflow.events", "complete", "true"))
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.events", "complete", "false"))
}

func TestRecordJob(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordJob(ctx, true, 2*time.Second)
	m.RecordJob(ctx, false, time.Second)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.job.runs", "success", "true"))
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.job.runs", "success", "false"))
	assert.NotNil(t, findMetric(rm, "hepflow.job.latency_ms"))
}

func TestRecordPersist(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPersist(ctx, "zpeak", nil)
	m.RecordPersist(ctx, "cuts", errors.New("duplicate"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.output.persists", "module", "zpeak"))
	assert.Equal(t, int64(1), sumFor(t, rm, "hepflow.output.persists", "success", "false"))
}
