package selection

import (
	"fmt"
	"math"
	"sort"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
)

// ScaleFactor is a named multiplicative per-event weight.
//
// Evaluate must be deterministic. A non-finite result or an error makes the
// weight invalid for that event; it is never coerced to 0 or 1.
type ScaleFactor interface {
	Name() string
	Evaluate(v event.View) (float64, error)
}

type funcScaleFactor struct {
	name string
	fn   func(event.View) (float64, error)
}

func (s funcScaleFactor) Name() string { return s.name }

func (s funcScaleFactor) Evaluate(v event.View) (float64, error) { return s.fn(v) }

// NewScaleFactor creates a ScaleFactor from a function.
// Panics if name is empty or fn is nil.
func NewScaleFactor(name string, fn func(event.View) (float64, error)) ScaleFactor {
	if name == "" {
		panic("selection: scale factor name cannot be empty")
	}
	if fn == nil {
		panic("selection: scale factor function cannot be nil")
	}
	return funcScaleFactor{name: name, fn: fn}
}

// Constant returns a ScaleFactor that always yields value, e.g. a
// luminosity times cross-section normalisation.
func Constant(name string, value float64) ScaleFactor {
	return NewScaleFactor(name, func(event.View) (float64, error) {
		return value, nil
	})
}

// FromVar returns a ScaleFactor reading the named event variable, e.g. a
// generator weight stored with the event. A missing variable is an error.
func FromVar(name, variable string) ScaleFactor {
	return NewScaleFactor(name, func(v event.View) (float64, error) {
		w, ok := v.Var(variable)
		if !ok {
			return math.NaN(), fmt.Errorf("event variable %q not present", variable)
		}
		return w, nil
	})
}

// Binned is a ScaleFactor looked up from a one-dimensional table keyed by an
// event variable (pile-up reweighting, trigger efficiency corrections, ...).
type Binned struct {
	name     string
	variable string
	edges    []float64
	values   []float64
	clamp    bool
}

// NewBinned creates a binned lookup. edges must be strictly increasing and
// len(values) must equal len(edges)-1. With clamp, values outside the table
// use the first or last bin; without it they are an evaluation error.
func NewBinned(name, variable string, edges, values []float64, clamp bool) (*Binned, error) {
	if name == "" {
		return nil, fmt.Errorf("selection: scale factor name cannot be empty")
	}
	if len(edges) < 2 {
		return nil, fmt.Errorf("scale factor %s: need at least two edges", name)
	}
	if len(values) != len(edges)-1 {
		return nil, fmt.Errorf("scale factor %s: %d values for %d bins", name, len(values), len(edges)-1)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, fmt.Errorf("scale factor %s: edges must be strictly increasing", name)
		}
	}
	return &Binned{
		name:     name,
		variable: variable,
		edges:    append([]float64(nil), edges...),
		values:   append([]float64(nil), values...),
		clamp:    clamp,
	}, nil
}

// Name implements ScaleFactor.
func (b *Binned) Name() string { return b.name }

// Evaluate implements ScaleFactor.
func (b *Binned) Evaluate(v event.View) (float64, error) {
	x, ok := v.Var(b.variable)
	if !ok {
		return math.NaN(), fmt.Errorf("event variable %q not present", b.variable)
	}
	if math.IsNaN(x) {
		return math.NaN(), fmt.Errorf("%s is NaN", b.variable)
	}
	last := len(b.values) - 1
	switch {
	case x < b.edges[0]:
		if !b.clamp {
			return math.NaN(), fmt.Errorf("%s=%g below table range", b.variable, x)
		}
		return b.values[0], nil
	case x >= b.edges[len(b.edges)-1]:
		if !b.clamp {
			return math.NaN(), fmt.Errorf("%s=%g above table range", b.variable, x)
		}
		return b.values[last], nil
	}
	// i is the first edge >= x.
	i := sort.SearchFloat64s(b.edges, x)
	if i < len(b.edges) && b.edges[i] == x {
		return b.values[i], nil
	}
	return b.values[i-1], nil
}
