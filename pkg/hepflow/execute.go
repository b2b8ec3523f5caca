package hepflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/observability"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
	"go.opentelemetry.io/otel/attribute"
)

// Run drives every event of src through the modules in resolved order, then
// finalizes and serializes every module.
//
// Execution flow:
//  1. Read one event; stop at the end of the source
//  2. Call Process on each module in order, recording its output
//  3. On a Process error or panic, skip the remaining modules for this event
//  4. After the last event, Finalize each module in order
//  5. Persist modules whose Finalize succeeded, then write the job summary
//
// A source error or cancellation ends step 1 early; steps 4 and 5 still run
// and the cause is returned as *EventAccessError or *CancellationError.
// Finalize and persist failures are joined into the returned error.
// The Report is always non-nil except for argument errors and output
// entries that already exist in the container; both are returned before
// any event is read.
//
// Example:
//
//	report, err := resolved.Run(ctx, src,
//	    hepflow.WithOutput(container),
//	    hepflow.WithLogger(logger))
func (rg *ResolvedGraph) Run(ctx context.Context, src event.Source, opts ...RunOption) (report *Report, runErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if src == nil {
		return nil, ErrNilSource
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.New().String()
	}
	if cfg.output != nil {
		if err := rg.checkOutputNames(cfg.output); err != nil {
			return nil, err
		}
	}

	report = newReport(cfg.runID, rg.names)
	report.StartedAt = time.Now()
	observability.LogJobStart(cfg.logger, cfg.runID, rg.names)

	jobCtx, jobSpan := cfg.spans.StartJobSpan(ctx, cfg.jobName, cfg.runID)
	defer func() {
		cfg.spans.EndSpanWithError(jobSpan, runErr)
	}()

	base := &executionContext{Context: jobCtx, logger: cfg.logger, runID: cfg.runID}
	mctxs := make([]*executionContext, len(rg.modules))
	for i, name := range rg.names {
		mctxs[i] = base.withModule(name)
	}

	abortErr := rg.eventLoop(jobCtx, src, mctxs, report, &cfg)
	if abortErr != nil {
		report.Aborted = true
		report.AbortErr = abortErr
	}

	// Finalization must run even if ctx is cancelled.
	endCtx := context.WithoutCancel(jobCtx)
	for _, c := range mctxs {
		c.Context = endCtx
		c.event = event.ID{}
	}

	errs := []error{abortErr}
	errs = append(errs, rg.finalizeAll(endCtx, mctxs, report, &cfg)...)
	if cfg.output != nil {
		errs = append(errs, rg.persistAll(endCtx, mctxs, report, &cfg)...)
	}

	report.FinishedAt = time.Now()
	if cfg.output != nil {
		if err := cfg.output.PutSummary(report.Summary()); err != nil {
			errs = append(errs, &PersistError{Err: err})
		}
	}

	runErr = errors.Join(errs...)

	duration := report.Duration()
	cfg.metrics.RecordJob(ctx, runErr == nil, duration)
	if runErr != nil {
		observability.LogJobError(cfg.logger, cfg.runID, runErr, float64(duration.Milliseconds()), report.EventsRead)
	} else {
		observability.LogJobComplete(cfg.logger, cfg.runID, float64(duration.Milliseconds()), report.EventsRead)
	}

	return report, runErr
}

// eventLoop reads and processes events until the source ends, the event
// limit is reached, or the job is aborted. It returns the abort cause.
func (rg *ResolvedGraph) eventLoop(ctx context.Context, src event.Source, mctxs []*executionContext, report *Report, cfg *runConfig) (abortErr error) {
	loopCtx, span := cfg.spans.StartPhaseSpan(ctx, observability.PhaseEventLoop)
	defer func() {
		cfg.spans.EndSpanWithError(span, abortErr)
	}()

	outputs := Outputs{values: make(map[string]any, len(rg.modules))}
	for {
		if cfg.maxEvents > 0 && report.EventsRead >= cfg.maxEvents {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return &CancellationError{EventsRead: report.EventsRead, Cause: err}
		}

		v, ok, err := src.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return &CancellationError{EventsRead: report.EventsRead, Cause: ctxErr}
			}
			observability.LogSourceError(cfg.logger, report.EventsRead, err)
			return &EventAccessError{EventsRead: report.EventsRead, Err: err}
		}
		if !ok {
			return nil
		}

		report.EventsRead++
		complete := rg.processEvent(loopCtx, v, outputs, mctxs, report, cfg)
		if complete {
			report.EventsComplete++
		} else {
			report.EventsPartial++
		}
		cfg.metrics.RecordEvent(loopCtx, complete)

		if cfg.progress != nil {
			cfg.progress(report.EventsRead)
		}
	}
}

// processEvent runs one event through every module. It returns false if a
// module failed and the rest of the chain was skipped.
func (rg *ResolvedGraph) processEvent(ctx context.Context, v event.View, outputs Outputs, mctxs []*executionContext, report *Report, cfg *runConfig) bool {
	outputs.reset()
	id := v.ID()
	failed := ""

	for i, m := range rg.modules {
		name := rg.names[i]
		stats := &report.Modules[i]

		if failed != "" {
			stats.Skipped++
			cfg.metrics.RecordModuleSkip(ctx, name)
			observability.LogModuleSkip(cfg.logger, name, id.String(), failed)
			continue
		}

		mctx := mctxs[i]
		mctx.event = id

		start := time.Now()
		out, err := safeProcess(mctx, m, v, outputs)
		cfg.metrics.RecordModuleProcess(ctx, name, time.Since(start), err)

		if err != nil {
			stats.Failed++
			perr := &ModuleProcessError{Module: name, Event: id, Err: err}
			report.recordFailure(perr, cfg.maxFailures)
			observability.LogModuleError(cfg.logger, name, id.String(), err)
			cfg.spans.AddSpanEvent(ctx, "module_failed",
				attribute.String("module", name),
				attribute.String("event", id.String()),
			)
			failed = name
			continue
		}

		stats.Processed++
		outputs.set(name, out)
	}

	return failed == ""
}

// safeProcess calls Process, converting a panic into a *PanicError.
func safeProcess(ctx *executionContext, m Module, v event.View, up Outputs) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &PanicError{
				Module: ctx.module,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return m.Process(ctx, v, up)
}

// finalizeAll calls Finalize on every module in order.
func (rg *ResolvedGraph) finalizeAll(ctx context.Context, mctxs []*executionContext, report *Report, cfg *runConfig) []error {
	phaseCtx, span := cfg.spans.StartPhaseSpan(ctx, observability.PhaseFinalize)

	var errs []error
	for i, m := range rg.modules {
		name := rg.names[i]
		_, modSpan := cfg.spans.StartModuleSpan(phaseCtx, observability.PhaseFinalize, name)

		err := safeFinalize(mctxs[i], m)
		cfg.spans.EndSpanWithError(modSpan, err)
		if err != nil {
			ferr := &FinalizeError{Module: name, Err: err}
			report.Modules[i].FinalizeErr = ferr
			observability.LogFinalizeError(cfg.logger, name, err)
			errs = append(errs, ferr)
		}
	}

	cfg.spans.EndSpanWithError(span, errors.Join(errs...))
	return errs
}

// safeFinalize calls Finalize, converting a panic into a *PanicError.
func safeFinalize(ctx *executionContext, m Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Module: ctx.module,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return m.Finalize(ctx)
}

// persistAll serializes every Persister module whose Finalize succeeded.
func (rg *ResolvedGraph) persistAll(ctx context.Context, mctxs []*executionContext, report *Report, cfg *runConfig) []error {
	phaseCtx, span := cfg.spans.StartPhaseSpan(ctx, observability.PhasePersist)

	var errs []error
	for i, m := range rg.modules {
		p, ok := m.(Persister)
		if !ok || report.Modules[i].FinalizeErr != nil {
			continue
		}
		name := rg.names[i]
		_, modSpan := cfg.spans.StartModuleSpan(phaseCtx, observability.PhasePersist, name)

		done := observability.TimedOperation()
		err := safePersist(mctxs[i], p, cfg)
		cfg.spans.EndSpanWithError(modSpan, err)
		cfg.metrics.RecordPersist(phaseCtx, name, err)

		if err != nil {
			perr := &PersistError{Module: name, Err: err}
			report.Modules[i].PersistErr = perr
			observability.LogPersistError(cfg.logger, name, err)
			errs = append(errs, perr)
			continue
		}
		report.Modules[i].Persisted = true
		observability.LogPersist(cfg.logger, name, done())
	}

	cfg.spans.EndSpanWithError(span, errors.Join(errs...))
	return errs
}

// safePersist calls Persist, converting a panic into a *PanicError.
func safePersist(ctx *executionContext, p Persister, cfg *runConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Module: ctx.module,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return p.Persist(ctx, cfg.output)
}

// checkOutputNames rejects a run whose modules would write entries the
// output container already holds, e.g. a second job into the same file.
func (rg *ResolvedGraph) checkOutputNames(out output.Container) error {
	taken, err := output.TakenNames(out)
	if err != nil {
		return err
	}
	if len(taken) == 0 {
		return nil
	}

	var errs []error
	for i, m := range rg.modules {
		namer, ok := m.(OutputNamer)
		if !ok {
			continue
		}
		for _, name := range namer.OutputNames() {
			if _, found := slices.BinarySearch(taken, name); found {
				errs = append(errs, &ConfigurationError{
					Module: rg.names[i],
					Msg:    fmt.Sprintf("output entry %q already exists in the output container", name),
				})
			}
		}
	}
	return errors.Join(errs...)
}
