// Package selection provides the pluggable selection (Filter) and weighting
// (ScaleFactor) strategies, their composition into a single per-event verdict,
// and FilterModule, the module that annotates events with a cutflow decision.
package selection

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/expr"
)

// Filter is a named predicate over an event.
//
// Evaluate returns a non-empty tag when the event passes and an empty tag
// when it fails. It must not modify the view and must be deterministic for
// identical view content. A non-nil error means the predicate could not be
// evaluated; callers treat it as a failure with a distinct reason.
type Filter interface {
	Name() string
	Evaluate(v event.View) (tag string, err error)
}

// funcFilter adapts a function to Filter.
type funcFilter struct {
	name string
	fn   func(event.View) (string, error)
}

func (f funcFilter) Name() string { return f.name }

func (f funcFilter) Evaluate(v event.View) (string, error) { return f.fn(v) }

// NewFilter creates a Filter from a tag-returning function.
// Panics if name is empty or fn is nil.
func NewFilter(name string, fn func(event.View) (string, error)) Filter {
	if name == "" {
		panic("selection: filter name cannot be empty")
	}
	if fn == nil {
		panic("selection: filter function cannot be nil")
	}
	return funcFilter{name: name, fn: fn}
}

// NewPredicate creates a Filter whose tag is its name when pred is true.
func NewPredicate(name string, pred func(event.View) bool) Filter {
	if pred == nil {
		panic("selection: filter predicate cannot be nil")
	}
	return NewFilter(name, func(v event.View) (string, error) {
		if pred(v) {
			return name, nil
		}
		return "", nil
	})
}

// exprFilter evaluates a compiled boolean expression over event.Lookup.
type exprFilter struct {
	name string
	prog *expr.Program
}

// NewExprFilter compiles src once and returns a Filter evaluating it against
// each event's variables (see event.Lookup). The tag is the filter name.
func NewExprFilter(name, src string) (Filter, error) {
	if name == "" {
		return nil, fmt.Errorf("selection: filter name cannot be empty")
	}
	prog, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", name, err)
	}
	return exprFilter{name: name, prog: prog}, nil
}

func (f exprFilter) Name() string { return f.name }

func (f exprFilter) Evaluate(v event.View) (string, error) {
	pass, err := f.prog.Eval(event.Lookup{View: v})
	if err != nil {
		return "", err
	}
	if pass {
		return f.name, nil
	}
	return "", nil
}

// String returns the expression source.
func (f exprFilter) String() string { return f.prog.String() }

// NewTriggerFilter passes when any of the listed triggers fired. The tag is
// the first fired trigger in declaration order. Triggers absent from the
// event count as not fired.
func NewTriggerFilter(name string, triggers ...string) Filter {
	if len(triggers) == 0 {
		panic("selection: trigger filter needs at least one trigger")
	}
	paths := append([]string(nil), triggers...)
	return NewFilter(name, func(v event.View) (string, error) {
		for _, t := range paths {
			if fired, _ := v.Trigger(t); fired {
				return t, nil
			}
		}
		return "", nil
	})
}

// NewMinCountFilter passes when the named collection holds at least n
// objects with transverse momentum of at least minPt.
func NewMinCountFilter(name, collection string, n int, minPt float64) Filter {
	return NewFilter(name, func(v event.View) (string, error) {
		count := 0
		for _, obj := range v.Collection(collection) {
			if obj.Pt >= minPt {
				count++
			}
		}
		if count >= n {
			return name, nil
		}
		return "", nil
	})
}

// JoinTags combines the tags of passing filters into one tag.
func JoinTags(tags []string) string {
	return strings.Join(tags, "+")
}
