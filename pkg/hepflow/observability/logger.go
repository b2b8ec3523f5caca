// Package observability provides production-grade observability features
// for hepflow jobs: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds job context to a logger.
// Returns a new logger with run_id and module fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "zpeak")
//	enriched.Info("booked histograms") // includes run_id, module
func EnrichLogger(logger *slog.Logger, runID, module string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("module", module),
	)
}

// LogJobStart logs the start of a job.
func LogJobStart(logger *slog.Logger, runID string, order []string) {
	if logger == nil {
		return
	}
	logger.Info("job starting",
		slog.String("run_id", runID),
		slog.Int("modules", len(order)),
		slog.Any("order", order),
	)
}

// LogJobComplete logs successful job completion.
func LogJobComplete(logger *slog.Logger, runID string, durationMs float64, events int64) {
	if logger == nil {
		return
	}
	logger.Info("job completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int64("events", events),
	)
}

// LogJobError logs a job that ended with an error. Partial results have
// already been serialized when this is called.
func LogJobError(logger *slog.Logger, runID string, err error, durationMs float64, events int64) {
	if logger == nil {
		return
	}
	logger.Error("job failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int64("events", events),
	)
}

// LogModuleError logs a per-event module failure.
func LogModuleError(logger *slog.Logger, module, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("module failed",
		slog.String("module", module),
		slog.String("event", eventID),
		slog.String("error", err.Error()),
	)
}

// LogModuleSkip logs a module skipped for one event after an earlier failure.
func LogModuleSkip(logger *slog.Logger, module, eventID, failed string) {
	if logger == nil {
		return
	}
	logger.Debug("module skipped",
		slog.String("module", module),
		slog.String("event", eventID),
		slog.String("failed_module", failed),
	)
}

// LogFinalizeError logs an end-of-job finalize failure. The module's output
// is not serialized.
func LogFinalizeError(logger *slog.Logger, module string, err error) {
	if logger == nil {
		return
	}
	logger.Error("module finalize failed",
		slog.String("module", module),
		slog.String("error", err.Error()),
	)
}

// LogPersist logs successful serialization of a module's output.
func LogPersist(logger *slog.Logger, module string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("module output persisted",
		slog.String("module", module),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPersistError logs a serialization failure (non-fatal for other modules).
func LogPersistError(logger *slog.Logger, module string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("module persist failed",
		slog.String("module", module),
		slog.String("error", err.Error()),
	)
}

// LogSourceError logs an event source failure that aborts the event loop.
func LogSourceError(logger *slog.Logger, eventsRead int64, err error) {
	if logger == nil {
		return
	}
	logger.Error("event source failed, finalizing partial results",
		slog.Int64("events_read", eventsRead),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
