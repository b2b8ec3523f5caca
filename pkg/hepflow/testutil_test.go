package hepflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// Test helpers shared across the package tests.

var errBoom = errors.New("boom")

// trace records module calls across a run, in call order.
type trace struct {
	mu    sync.Mutex
	calls []string
}

func (t *trace) add(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, s)
}

func (t *trace) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// counterModule counts the events it processed and returns its running count.
// It can be told to fail or panic on specific event numbers.
type counterModule struct {
	name      string
	deps      []string
	tr        *trace
	count     int
	seen      []uint64
	failOn    map[uint64]bool
	panicOn   map[uint64]bool
	finalErr  error
	finalized bool
	persisted bool
	outputs   []string
	upstream  []Outputs
}

func newCounter(name string, deps ...string) *counterModule {
	return &counterModule{name: name, deps: deps}
}

func (m *counterModule) traced(tr *trace) *counterModule {
	m.tr = tr
	return m
}

func (m *counterModule) failingOn(events ...uint64) *counterModule {
	m.failOn = make(map[uint64]bool)
	for _, e := range events {
		m.failOn[e] = true
	}
	return m
}

func (m *counterModule) panickingOn(events ...uint64) *counterModule {
	m.panicOn = make(map[uint64]bool)
	for _, e := range events {
		m.panicOn[e] = true
	}
	return m
}

func (m *counterModule) Name() string           { return m.name }
func (m *counterModule) Dependencies() []string { return m.deps }

func (m *counterModule) Process(ctx Context, v event.View, up Outputs) (any, error) {
	id := v.ID()
	if m.tr != nil {
		m.tr.add(fmt.Sprintf("%s:%d", m.name, id.Event))
	}
	if m.panicOn[id.Event] {
		panic("corrupt collection")
	}
	if m.failOn[id.Event] {
		return nil, errBoom
	}
	m.count++
	m.seen = append(m.seen, id.Event)
	m.upstream = append(m.upstream, NewOutputs(up.values))
	return m.count, nil
}

func (m *counterModule) Finalize(ctx Context) error {
	if m.tr != nil {
		m.tr.add("finalize:" + m.name)
	}
	m.finalized = true
	return m.finalErr
}

// persistingModule is a counterModule that writes a cutflow entry.
type persistingModule struct {
	*counterModule
}

func (m persistingModule) OutputNames() []string {
	if m.outputs != nil {
		return m.outputs
	}
	return []string{m.name}
}

func (m persistingModule) Persist(ctx Context, out output.Container) error {
	m.persisted = true
	return out.PutCutflow(output.Cutflow{
		Name:   m.name,
		Events: int64(m.count),
		Rows:   []output.CutflowRow{{Filter: "all", Passed: int64(m.count), Cumulative: int64(m.count)}},
	})
}

// tagged is a Process result carrying a tag and weight.
type tagged struct {
	tag    string
	weight float64
}

func (t tagged) Tag() string     { return t.tag }
func (t tagged) Weight() float64 { return t.weight }

// events builds n records numbered 1..n in run 1.
func events(n int) []event.View {
	views := make([]event.View, n)
	for i := range views {
		views[i] = event.NewRecord(event.ID{Run: 1, Event: uint64(i + 1)})
	}
	return views
}

// failingSource yields n events, then fails.
type failingSource struct {
	views []event.View
	pos   int
	err   error
}

func (s *failingSource) Next(ctx context.Context) (event.View, bool, error) {
	if s.pos >= len(s.views) {
		return nil, false, s.err
	}
	v := s.views[s.pos]
	s.pos++
	return v, true, nil
}

func mustResolve(modules ...Module) *ResolvedGraph {
	g := NewGraph()
	for _, m := range modules {
		g.MustAddModule(m)
	}
	rg, err := g.Resolve()
	if err != nil {
		panic(err)
	}
	return rg
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}
