package hist

import (
	"errors"
	"log/slog"
	"math"
	"slices"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
)

// Module is a histogram-filling module owning an ordered set of specs.
//
// An event reaches the specs only if every required upstream module
// produced a non-empty tag; otherwise it is counted as vetoed. With a
// weight source configured, the upstream selection.EventWeight multiplies
// every fill weight.
type Module struct {
	name     string
	deps     []string
	required []string
	weight   string

	specs []*Spec
	index map[string]int

	events int64
	vetoed int64
}

// Compile-time interface checks.
var (
	_ hepflow.Module      = (*Module)(nil)
	_ hepflow.Persister   = (*Module)(nil)
	_ hepflow.OutputNamer = (*Module)(nil)
)

// NewModule creates an empty histogram module.
func NewModule(name string, deps ...string) *Module {
	return &Module{
		name:  name,
		deps:  slices.Clone(deps),
		index: make(map[string]int),
	}
}

// Add appends a spec. Names must be unique within the module.
func (m *Module) Add(s *Spec) error {
	if s == nil {
		return &hepflow.ConfigurationError{Module: m.name, Msg: "histogram cannot be nil"}
	}
	if _, ok := m.index[s.Name()]; ok {
		return &hepflow.DuplicateNameError{Kind: "histogram", Name: s.Name(), Owners: []string{m.name}}
	}
	m.index[s.Name()] = len(m.specs)
	m.specs = append(m.specs, s)
	return nil
}

// MustAdd is like Add but panics on error.
func (m *Module) MustAdd(s *Spec) *Module {
	if err := m.Add(s); err != nil {
		panic("hist: " + err.Error())
	}
	return m
}

// Require gates the module on the named upstream modules' tags. The names
// become dependencies.
func (m *Module) Require(names ...string) *Module {
	for _, name := range names {
		if !slices.Contains(m.required, name) {
			m.required = append(m.required, name)
		}
		m.addDep(name)
	}
	return m
}

// UseWeight multiplies every fill by the weight produced by the named
// upstream module. The name becomes a dependency.
func (m *Module) UseWeight(name string) *Module {
	m.weight = name
	m.addDep(name)
	return m
}

func (m *Module) addDep(name string) {
	if !slices.Contains(m.deps, name) {
		m.deps = append(m.deps, name)
	}
}

// Name implements hepflow.Module.
func (m *Module) Name() string { return m.name }

// Dependencies implements hepflow.Module.
func (m *Module) Dependencies() []string { return slices.Clone(m.deps) }

// Specs returns the specs in insertion order.
func (m *Module) Specs() []*Spec { return slices.Clone(m.specs) }

// Spec returns the named spec.
func (m *Module) Spec(name string) (*Spec, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.specs[i], true
}

// Counts returns the number of events seen and vetoed.
func (m *Module) Counts() (events, vetoed int64) {
	return m.events, m.vetoed
}

// Process implements hepflow.Module. It returns the number of specs filled.
func (m *Module) Process(ctx hepflow.Context, v event.View, up hepflow.Outputs) (any, error) {
	m.events++
	if !up.Passed(m.required...) {
		m.vetoed++
		return 0, nil
	}

	base := 1.0
	if m.weight != "" {
		base = eventWeight(up, m.weight)
	}

	filled := 0
	for _, s := range m.specs {
		res := s.FillWeighted(v, base)
		if res.Filled() {
			filled++
			continue
		}
		if res.Err != nil {
			ctx.Logger().Debug("histogram fill skipped",
				slog.String("histogram", s.Name()),
				slog.String("event", v.ID().String()),
				slog.String("reason", res.Outcome.String()),
				slog.String("error", res.Err.Error()),
			)
		}
	}
	return filled, nil
}

// eventWeight reads an upstream weight. A missing or invalid weight is NaN,
// which the specs count as a weight skip.
func eventWeight(up hepflow.Outputs, name string) float64 {
	out, ok := up.Get(name)
	if !ok {
		return math.NaN()
	}
	if ew, ok := out.(selection.EventWeight); ok && !ew.Valid() {
		return math.NaN()
	}
	w, ok := up.Weight(name)
	if !ok {
		return math.NaN()
	}
	return w
}

// Finalize implements hepflow.Module. It logs each spec's accounting.
func (m *Module) Finalize(ctx hepflow.Context) error {
	for _, s := range m.specs {
		st := s.Stats()
		under, over := s.Outflow()
		ctx.Logger().Info("histogram",
			slog.String("histogram", s.Name()),
			slog.Int64("attempts", st.Attempts),
			slog.Int64("filled", st.Filled),
			slog.Int64("skipped", st.Skipped()),
			slog.Int64("unmatched", st.Unmatched),
			slog.Float64("sum_weights", st.SumW),
			slog.Float64("underflow", under),
			slog.Float64("overflow", over),
		)
	}
	if m.vetoed > 0 {
		ctx.Logger().Info("histogram module vetoed events",
			slog.Int64("events", m.events),
			slog.Int64("vetoed", m.vetoed),
		)
	}
	return nil
}

// OutputNames implements hepflow.OutputNamer.
func (m *Module) OutputNames() []string {
	names := make([]string, len(m.specs))
	for i, s := range m.specs {
		names[i] = s.Name()
	}
	return names
}

// Persist implements hepflow.Persister. Every spec is attempted; failures
// are joined.
func (m *Module) Persist(_ hepflow.Context, out output.Container) error {
	var errs []error
	for _, s := range m.specs {
		if err := out.PutHistogram(s.Histogram()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
