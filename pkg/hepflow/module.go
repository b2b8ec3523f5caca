package hepflow

import (
	"sort"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// Module is a unit of per-event work with declared dependencies.
//
// Process is called once per event in resolved order. The returned value is
// recorded under the module's name in the Outputs seen by every module
// ordered after it for the same event; it may be nil. The view and the
// Outputs are valid only for the duration of the call.
//
// Finalize is called once after the last event, in the same order, even
// when the event loop was aborted.
type Module interface {
	Name() string
	Dependencies() []string
	Process(ctx Context, v event.View, up Outputs) (any, error)
	Finalize(ctx Context) error
}

// Persister is implemented by modules that serialize results at end of job.
// Persist is called after Finalize succeeded.
type Persister interface {
	Persist(ctx Context, out output.Container) error
}

// OutputNamer is implemented by modules that write named output entries.
// Resolve rejects jobs in which two modules claim the same entry name.
type OutputNamer interface {
	OutputNames() []string
}

// Tagger is implemented by Process results that carry a selection tag.
// An empty tag means the event failed the selection.
type Tagger interface {
	Tag() string
}

// Weighter is implemented by Process results that carry an event weight.
type Weighter interface {
	Weight() float64
}

// Outputs holds the Process results of the modules that already ran for the
// current event. Modules that failed or were skipped have no entry.
type Outputs struct {
	values map[string]any
}

// NewOutputs creates an Outputs record from a map. It is mainly useful for
// calling Process directly in tests.
func NewOutputs(values map[string]any) Outputs {
	o := Outputs{values: make(map[string]any, len(values))}
	for k, v := range values {
		o.values[k] = v
	}
	return o
}

// Get returns the output of the named module.
func (o Outputs) Get(name string) (any, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Has reports whether the named module produced an output for this event.
func (o Outputs) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Tag returns the selection tag of the named module's output. ok is false
// when the module has no output or its output carries no tag.
func (o Outputs) Tag(name string) (tag string, ok bool) {
	t, ok := o.values[name].(Tagger)
	if !ok {
		return "", false
	}
	return t.Tag(), true
}

// Passed reports whether every named module produced a non-empty tag.
func (o Outputs) Passed(names ...string) bool {
	for _, name := range names {
		tag, ok := o.Tag(name)
		if !ok || tag == "" {
			return false
		}
	}
	return true
}

// Weight returns the weight carried by the named module's output.
func (o Outputs) Weight(name string) (float64, bool) {
	w, ok := o.values[name].(Weighter)
	if !ok {
		return 0, false
	}
	return w.Weight(), true
}

// Names returns the names of the modules with an output, sorted.
func (o Outputs) Names() []string {
	names := make([]string, 0, len(o.values))
	for name := range o.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of recorded outputs.
func (o Outputs) Len() int {
	return len(o.values)
}

func (o Outputs) set(name string, v any) {
	o.values[name] = v
}

func (o Outputs) reset() {
	clear(o.values)
}

// ProcessFunc is the per-event hook of a FuncModule.
type ProcessFunc func(ctx Context, v event.View, up Outputs) (any, error)

// FuncModule adapts plain functions to Module.
type FuncModule struct {
	name     string
	deps     []string
	process  ProcessFunc
	finalize func(ctx Context) error
}

// NewFuncModule creates a module from a Process function. finalize may be nil.
func NewFuncModule(name string, deps []string, process ProcessFunc, finalize func(Context) error) *FuncModule {
	return &FuncModule{
		name:     name,
		deps:     append([]string(nil), deps...),
		process:  process,
		finalize: finalize,
	}
}

// Name implements Module.
func (m *FuncModule) Name() string { return m.name }

// Dependencies implements Module.
func (m *FuncModule) Dependencies() []string { return append([]string(nil), m.deps...) }

// Process implements Module.
func (m *FuncModule) Process(ctx Context, v event.View, up Outputs) (any, error) {
	if m.process == nil {
		return nil, nil
	}
	return m.process(ctx, v, up)
}

// Finalize implements Module.
func (m *FuncModule) Finalize(ctx Context) error {
	if m.finalize == nil {
		return nil
	}
	return m.finalize(ctx)
}
