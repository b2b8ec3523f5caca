package hepflow

import (
	"time"

	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// ModuleStats is the per-module accounting of one run.
type ModuleStats struct {
	Name string
	// Processed counts events on which Process succeeded.
	Processed int64
	// Failed counts events on which Process returned an error or panicked.
	Failed int64
	// Skipped counts events not offered to the module because a module
	// ordered before it failed.
	Skipped int64
	// FinalizeErr is the Finalize failure, if any.
	FinalizeErr error
	// PersistErr is the serialization failure, if any.
	PersistErr error
	// Persisted reports whether the module's output was written.
	Persisted bool
}

// Report summarizes one run. It is returned even when Run returns an error.
type Report struct {
	RunID      string
	Order      []string
	StartedAt  time.Time
	FinishedAt time.Time

	// EventsRead counts events taken from the source.
	EventsRead int64
	// EventsComplete counts events processed by every module.
	EventsComplete int64
	// EventsPartial counts events on which some module failed.
	EventsPartial int64

	// Modules holds one entry per module, in execution order.
	Modules []ModuleStats

	// Failures holds the first recorded per-event module failures.
	Failures []*ModuleProcessError
	// FailuresDropped counts failures beyond the recording limit.
	FailuresDropped int64

	// Aborted is set when the event loop stopped on a source error or
	// cancellation; AbortErr holds the cause.
	Aborted  bool
	AbortErr error
}

func newReport(runID string, order []string) *Report {
	r := &Report{
		RunID:   runID,
		Order:   append([]string(nil), order...),
		Modules: make([]ModuleStats, len(order)),
	}
	for i, name := range order {
		r.Modules[i].Name = name
	}
	return r
}

// Module returns the statistics of the named module.
func (r *Report) Module(name string) (ModuleStats, bool) {
	for _, m := range r.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleStats{}, false
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) recordFailure(err *ModuleProcessError, limit int) {
	if len(r.Failures) < limit {
		r.Failures = append(r.Failures, err)
		return
	}
	r.FailuresDropped++
}

// Summary converts the report into its persisted form.
func (r *Report) Summary() output.Summary {
	s := output.Summary{
		RunID:           r.RunID,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		EventsRead:      r.EventsRead,
		EventsComplete:  r.EventsComplete,
		EventsPartial:   r.EventsPartial,
		Aborted:         r.Aborted,
		Modules:         make([]output.ModuleStat, 0, len(r.Modules)),
		FailuresDropped: r.FailuresDropped,
	}
	if r.AbortErr != nil {
		s.AbortReason = r.AbortErr.Error()
	}
	for _, m := range r.Modules {
		ms := output.ModuleStat{
			Module:    m.Name,
			Processed: m.Processed,
			Failed:    m.Failed,
			Skipped:   m.Skipped,
		}
		switch {
		case m.FinalizeErr != nil:
			ms.Error = m.FinalizeErr.Error()
		case m.PersistErr != nil:
			ms.Error = m.PersistErr.Error()
		}
		s.Modules = append(s.Modules, ms)
	}
	for _, f := range r.Failures {
		s.Failures = append(s.Failures, output.Failure{
			Module: f.Module,
			Event:  f.Event.String(),
			Error:  f.Err.Error(),
		})
	}
	return s
}
