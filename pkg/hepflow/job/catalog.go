// Package job assembles a module graph from a config.Job.
//
// Named building blocks live in a Catalog scoped to one job: the filters
// and scale factors declared in the job file, plus any Go-defined filters,
// scale factors and value functions the embedding program registers before
// calling Build.
package job

import (
	"fmt"

	"github.com/randalmurphal/hepflow/pkg/hepflow/config"
	"github.com/randalmurphal/hepflow/pkg/hepflow/hist"
	"github.com/randalmurphal/hepflow/pkg/hepflow/registry"
	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
)

// Catalog holds the named filters, scale factors and value functions
// available to one job.
type Catalog struct {
	Filters      *registry.Registry[selection.Filter]
	ScaleFactors *registry.Registry[selection.ScaleFactor]
	// Values are referenced from histogram specs as "value:NAME".
	Values *registry.Registry[hist.ValueFunc]
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		Filters:      registry.New[selection.Filter]("filter"),
		ScaleFactors: registry.New[selection.ScaleFactor]("scale factor"),
		Values:       registry.New[hist.ValueFunc]("value"),
	}
}

// newFilter builds a filter from its declaration.
func newFilter(f config.Filter) (selection.Filter, error) {
	p := config.New(f.Params)
	switch f.Type {
	case config.FilterExpr:
		return selection.NewExprFilter(f.Name, f.Expr)
	case config.FilterTrigger:
		triggers := p.StringSlice("triggers", nil)
		if len(triggers) == 0 {
			return nil, fmt.Errorf("filter %s: params.triggers must list at least one trigger", f.Name)
		}
		return selection.NewTriggerFilter(f.Name, triggers...), nil
	case config.FilterMinCount:
		coll := p.String("collection", "")
		if coll == "" {
			return nil, fmt.Errorf("filter %s: params.collection is required", f.Name)
		}
		n := p.Int("count", 1)
		if n < 1 {
			return nil, fmt.Errorf("filter %s: params.count must be at least 1", f.Name)
		}
		return selection.NewMinCountFilter(f.Name, coll, n, p.Float("min_pt", 0)), nil
	default:
		return nil, fmt.Errorf("filter %s: unknown type %q", f.Name, f.Type)
	}
}

// newScaleFactor builds a scale factor from its declaration.
func newScaleFactor(sf config.ScaleFactor) (selection.ScaleFactor, error) {
	p := config.New(sf.Params)
	switch sf.Type {
	case config.ScaleFactorConstant:
		if !p.Has("value") {
			return nil, fmt.Errorf("scale factor %s: params.value is required", sf.Name)
		}
		return selection.Constant(sf.Name, p.Float("value", 1)), nil
	case config.ScaleFactorVar:
		v := p.String("var", "")
		if v == "" {
			return nil, fmt.Errorf("scale factor %s: params.var is required", sf.Name)
		}
		return selection.FromVar(sf.Name, v), nil
	case config.ScaleFactorBinned:
		v := p.String("var", "")
		if v == "" {
			return nil, fmt.Errorf("scale factor %s: params.var is required", sf.Name)
		}
		b, err := selection.NewBinned(sf.Name, v,
			p.FloatSlice("edges", nil), p.FloatSlice("values", nil), p.Bool("clamp", false))
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("scale factor %s: unknown type %q", sf.Name, sf.Type)
	}
}
