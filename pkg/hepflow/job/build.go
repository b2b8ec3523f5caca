package job

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/config"
	"github.com/randalmurphal/hepflow/pkg/hepflow/hist"
	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
)

// Extractor value prefixes.
const (
	prefixVar         = "var:"
	prefixValue       = "value:"
	prefixResolution  = "resolution:"
	prefixTruthVsReco = "truth_vs_reco:"
)

// Build validates j, registers its filters and scale factors in cat, and
// assembles the module graph. A nil catalog is treated as empty. Every
// problem found is returned, joined; each matches hepflow.ErrConfiguration
// or config.ErrInvalid.
//
// The returned graph is not yet resolved.
func Build(j config.Job, cat *Catalog) (*hepflow.Graph, error) {
	if cat == nil {
		cat = NewCatalog()
	}
	if err := j.ValidateWith(cat.Filters.Names(), cat.ScaleFactors.Names()); err != nil {
		return nil, err
	}

	var errs []error
	for _, f := range j.Filters {
		filter, err := newFilter(f)
		if err == nil {
			err = cat.Filters.Register(f.Name, filter)
		}
		if err != nil {
			errs = append(errs, &hepflow.ConfigurationError{Err: err})
		}
	}
	for _, sf := range j.ScaleFactors {
		scale, err := newScaleFactor(sf)
		if err == nil {
			err = cat.ScaleFactors.Register(sf.Name, scale)
		}
		if err != nil {
			errs = append(errs, &hepflow.ConfigurationError{Err: err})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	g := hepflow.NewGraph()
	for _, m := range j.Modules {
		mod, err := buildModule(m, cat)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := g.AddModule(mod); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

func buildModule(m config.Module, cat *Catalog) (hepflow.Module, error) {
	configErr := func(err error) error {
		if errors.Is(err, hepflow.ErrConfiguration) {
			return err
		}
		return &hepflow.ConfigurationError{Module: m.Name, Err: err}
	}

	switch m.Type {
	case config.ModuleFilter:
		filters, err := cat.Filters.LookupAll(m.Filters)
		if err != nil {
			return nil, configErr(err)
		}
		fm, err := selection.NewFilterModule(m.Name, m.Depends, filters...)
		if err != nil {
			return nil, err
		}
		return fm, nil

	case config.ModuleWeight:
		sfs, err := cat.ScaleFactors.LookupAll(m.ScaleFactors)
		if err != nil {
			return nil, configErr(err)
		}
		wm, err := selection.NewWeightModule(m.Name, m.Depends, sfs...)
		if err != nil {
			return nil, err
		}
		return wm, nil

	case config.ModuleHistograms:
		mod := hist.NewModule(m.Name, m.Depends...).Require(m.Require...)
		if m.Weight != "" {
			mod.UseWeight(m.Weight)
		}
		var errs []error
		for _, h := range m.Histograms {
			spec, err := buildSpec(h, cat)
			if err != nil {
				errs = append(errs, configErr(err))
				continue
			}
			if err := mod.Add(spec); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return mod, nil

	default:
		return nil, configErr(fmt.Errorf("unknown module type %q", m.Type))
	}
}

func buildSpec(h config.Histogram, cat *Catalog) (*hist.Spec, error) {
	filters, err := cat.Filters.LookupAll(h.Filters)
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", h.Name, err)
	}
	sfs, err := cat.ScaleFactors.LookupAll(h.ScaleFactors)
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", h.Name, err)
	}
	ex, err := extractor(h, cat)
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", h.Name, err)
	}

	opts := []hist.Option{
		hist.WithTitle(h.Title),
		hist.WithFilters(filters...),
		hist.WithScaleFactors(sfs...),
	}
	x := hist.Axis{Bins: h.Bins, Low: h.Low, High: h.High}
	if h.Y == nil {
		return hist.New1D(h.Name, x, ex, opts...)
	}
	y := hist.Axis{Bins: h.Y.Bins, Low: h.Y.Low, High: h.Y.High}
	return hist.New2D(h.Name, x, y, ex, opts...)
}

// extractor resolves the value strings of a histogram to an extractor
// variant, once, at build time.
func extractor(h config.Histogram, cat *Catalog) (hist.Extractor, error) {
	switch {
	case strings.HasPrefix(h.Value, prefixResolution):
		if h.Y != nil {
			return hist.Extractor{}, fmt.Errorf("%q is one-dimensional", h.Value)
		}
		return hist.Resolution(hist.Var(strings.TrimPrefix(h.Value, prefixResolution))), nil

	case strings.HasPrefix(h.Value, prefixTruthVsReco):
		if h.Y == nil || h.Y.Value != "" {
			return hist.Extractor{}, fmt.Errorf("%q needs a y axis without its own value", h.Value)
		}
		return hist.TruthVsReco(hist.Var(strings.TrimPrefix(h.Value, prefixTruthVsReco))), nil
	}

	fx, err := valueFunc(h.Value, cat)
	if err != nil {
		return hist.Extractor{}, err
	}
	if h.Y == nil {
		return hist.Scalar(fx), nil
	}
	fy, err := valueFunc(h.Y.Value, cat)
	if err != nil {
		return hist.Extractor{}, fmt.Errorf("y: %w", err)
	}
	return hist.Scalar(fx, fy), nil
}

func valueFunc(value string, cat *Catalog) (hist.ValueFunc, error) {
	switch {
	case strings.HasPrefix(value, prefixVar):
		name := strings.TrimPrefix(value, prefixVar)
		if name == "" {
			return nil, fmt.Errorf("empty variable in %q", value)
		}
		return hist.Var(name), nil
	case strings.HasPrefix(value, prefixValue):
		return cat.Values.Lookup(strings.TrimPrefix(value, prefixValue))
	default:
		return nil, fmt.Errorf("unsupported value %q (want var:, value:, resolution: or truth_vs_reco:)", value)
	}
}
