package selection

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// Decision is the per-event output of a FilterModule.
type Decision struct {
	// Tags holds each filter's tag in declaration order; a failed or
	// unevaluable filter has an empty tag.
	Tags []string
	// Errors counts filters that could not be evaluated for this event.
	Errors int
}

// Tag returns the combined tag: the tags joined with "+" when every filter
// passed, otherwise "".
func (d Decision) Tag() string {
	if !d.Passed() {
		return ""
	}
	return JoinTags(d.Tags)
}

// Passed reports whether every filter passed.
func (d Decision) Passed() bool {
	for _, t := range d.Tags {
		if t == "" {
			return false
		}
	}
	return d.Errors == 0
}

// FilterModule evaluates a set of filters on every event and annotates the
// event with the combined decision. It never vetoes the event itself;
// downstream modules decide what to do with the tag, so several independent
// selections can be evaluated in one pass.
//
// It keeps per-filter pass counts and a cumulative funnel, reported as a
// cutflow at end of job.
type FilterModule struct {
	name    string
	deps    []string
	filters []Filter

	events     int64
	passed     []int64
	cumulative []int64
	errors     []int64
}

// Compile-time interface checks.
var (
	_ hepflow.Module      = (*FilterModule)(nil)
	_ hepflow.Persister   = (*FilterModule)(nil)
	_ hepflow.OutputNamer = (*FilterModule)(nil)
)

// NewFilterModule creates a filter module. At least one filter is required
// and filter names must be unique within the module.
func NewFilterModule(name string, deps []string, filters ...Filter) (*FilterModule, error) {
	if name == "" {
		return nil, &hepflow.ConfigurationError{Msg: "filter module name cannot be empty"}
	}
	if len(filters) == 0 {
		return nil, &hepflow.ConfigurationError{Module: name, Msg: "filter module needs at least one filter"}
	}
	seen := make(map[string]bool, len(filters))
	for _, f := range filters {
		if f == nil {
			return nil, &hepflow.ConfigurationError{Module: name, Msg: "filter cannot be nil"}
		}
		if seen[f.Name()] {
			return nil, &hepflow.DuplicateNameError{Kind: "filter", Name: f.Name()}
		}
		seen[f.Name()] = true
	}

	n := len(filters)
	return &FilterModule{
		name:       name,
		deps:       append([]string(nil), deps...),
		filters:    append([]Filter(nil), filters...),
		passed:     make([]int64, n),
		cumulative: make([]int64, n),
		errors:     make([]int64, n),
	}, nil
}

// Name implements hepflow.Module.
func (m *FilterModule) Name() string { return m.name }

// Dependencies implements hepflow.Module.
func (m *FilterModule) Dependencies() []string { return append([]string(nil), m.deps...) }

// Filters returns the wrapped filters in declaration order.
func (m *FilterModule) Filters() []Filter { return append([]Filter(nil), m.filters...) }

// Process evaluates every filter, without short-circuiting, and returns a
// Decision.
func (m *FilterModule) Process(ctx hepflow.Context, v event.View, _ hepflow.Outputs) (any, error) {
	m.events++
	d := Decision{Tags: make([]string, len(m.filters))}
	chain := true

	for i, f := range m.filters {
		tag, err := f.Evaluate(v)
		if err != nil {
			m.errors[i]++
			d.Errors++
			chain = false
			ctx.Logger().Debug("filter evaluation failed",
				slog.String("filter", f.Name()),
				slog.String("event", v.ID().String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if tag == "" {
			chain = false
			continue
		}
		d.Tags[i] = tag
		m.passed[i]++
		if chain {
			m.cumulative[i]++
		}
	}
	return d, nil
}

// Finalize implements hepflow.Module. It logs the funnel.
func (m *FilterModule) Finalize(ctx hepflow.Context) error {
	for i, f := range m.filters {
		ctx.Logger().Info("cutflow",
			slog.String("filter", f.Name()),
			slog.Int64("events", m.events),
			slog.Int64("passed", m.passed[i]),
			slog.Int64("cumulative", m.cumulative[i]),
			slog.Int64("errors", m.errors[i]),
		)
	}
	return nil
}

// OutputNames implements hepflow.OutputNamer.
func (m *FilterModule) OutputNames() []string { return []string{m.name} }

// Persist implements hepflow.Persister. It writes the cutflow under the
// module name.
func (m *FilterModule) Persist(_ hepflow.Context, out output.Container) error {
	return out.PutCutflow(m.Cutflow())
}

// Cutflow returns the current per-filter counts.
func (m *FilterModule) Cutflow() output.Cutflow {
	c := output.Cutflow{
		Name:   m.name,
		Events: m.events,
		Rows:   make([]output.CutflowRow, len(m.filters)),
	}
	for i, f := range m.filters {
		c.Rows[i] = output.CutflowRow{
			Filter:     f.Name(),
			Passed:     m.passed[i],
			Cumulative: m.cumulative[i],
			Errors:     m.errors[i],
		}
	}
	return c
}

// PassCount returns how many events the named filter passed.
func (m *FilterModule) PassCount(filter string) (int64, bool) {
	for i, f := range m.filters {
		if f.Name() == filter {
			return m.passed[i], true
		}
	}
	return 0, false
}

// EventWeight is the per-event output of a WeightModule.
type EventWeight struct {
	Value float64
	// Err is a *WeightEvaluationError when the weight is invalid.
	Err error
}

// Weight implements hepflow.Weighter. An invalid weight is NaN.
func (w EventWeight) Weight() float64 {
	if w.Err != nil {
		return math.NaN()
	}
	return w.Value
}

// Valid reports whether the weight could be computed.
func (w EventWeight) Valid() bool { return w.Err == nil }

// WeightModule computes a shared event weight (the product of its scale
// factors) once per event for use by downstream histogram modules.
// An invalid weight is reported in the output, not as a module failure.
type WeightModule struct {
	name      string
	deps      []string
	selection Selection

	valid   int64
	invalid int64
	sumW    float64
}

var _ hepflow.Module = (*WeightModule)(nil)

// NewWeightModule creates a weight module.
func NewWeightModule(name string, deps []string, sfs ...ScaleFactor) (*WeightModule, error) {
	if name == "" {
		return nil, &hepflow.ConfigurationError{Msg: "weight module name cannot be empty"}
	}
	for _, sf := range sfs {
		if sf == nil {
			return nil, &hepflow.ConfigurationError{Module: name, Msg: "scale factor cannot be nil"}
		}
	}
	return &WeightModule{
		name:      name,
		deps:      append([]string(nil), deps...),
		selection: New(nil, sfs),
	}, nil
}

// Name implements hepflow.Module.
func (m *WeightModule) Name() string { return m.name }

// Dependencies implements hepflow.Module.
func (m *WeightModule) Dependencies() []string { return append([]string(nil), m.deps...) }

// Process implements hepflow.Module and returns an EventWeight.
func (m *WeightModule) Process(_ hepflow.Context, v event.View, _ hepflow.Outputs) (any, error) {
	w, err := m.selection.Weight(v)
	if err != nil {
		m.invalid++
		return EventWeight{Err: err}, nil
	}
	m.valid++
	m.sumW += w
	return EventWeight{Value: w}, nil
}

// Finalize implements hepflow.Module.
func (m *WeightModule) Finalize(ctx hepflow.Context) error {
	ctx.Logger().Info("event weights",
		slog.Int64("valid", m.valid),
		slog.Int64("invalid", m.invalid),
		slog.Float64("sum_weights", m.sumW),
	)
	return nil
}

// Counts returns the number of valid and invalid weights and the sum of
// valid weights.
func (m *WeightModule) Counts() (valid, invalid int64, sumW float64) {
	return m.valid, m.invalid, m.sumW
}

// String describes the module.
func (m *WeightModule) String() string {
	return fmt.Sprintf("WeightModule(%s, %d scale factors)", m.name, len(m.selection.scaleFactors))
}
