package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is matched by every job validation error.
var ErrInvalid = errors.New("invalid job configuration")

// ValidationError reports one problem in a job description.
type ValidationError struct {
	// Field is a dotted path such as "modules[2].histograms[0].bins".
	Field string
	Msg   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Filter types.
const (
	FilterExpr     = "expr"
	FilterTrigger  = "trigger"
	FilterMinCount = "min_count"
)

// Scale factor types.
const (
	ScaleFactorConstant = "constant"
	ScaleFactorVar      = "var"
	ScaleFactorBinned   = "binned"
)

// Module types.
const (
	ModuleFilter     = "filter"
	ModuleWeight     = "weight"
	ModuleHistograms = "histograms"
)

// Output formats.
const (
	FormatSQLite = "sqlite"
	FormatROOT   = "root"
)

// Job describes one analysis job: where events come from, the named
// filters and scale factors, and the module graph that uses them.
type Job struct {
	Name         string        `yaml:"name" json:"name"`
	Input        Input         `yaml:"input" json:"input"`
	Output       Output        `yaml:"output" json:"output"`
	Run          RunSettings   `yaml:"run" json:"run"`
	Filters      []Filter      `yaml:"filters" json:"filters"`
	ScaleFactors []ScaleFactor `yaml:"scale_factors" json:"scale_factors"`
	Modules      []Module      `yaml:"modules" json:"modules"`
}

// Input names the event files. Both are JSON Lines; with Truth set the two
// files are read in lockstep as truth/reco pairs.
type Input struct {
	Events string `yaml:"events" json:"events"`
	Truth  string `yaml:"truth,omitempty" json:"truth,omitempty"`
}

// Output selects the result container.
type Output struct {
	Path string `yaml:"path" json:"path"`
	// Format is "sqlite" or "root". Empty infers it from the extension.
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	// Plots is a directory for PNG renderings of 1-D histograms.
	Plots string `yaml:"plots,omitempty" json:"plots,omitempty"`
}

// ResolvedFormat returns the output format, inferring it from the path
// extension when unset.
func (o Output) ResolvedFormat() string {
	if o.Format != "" {
		return o.Format
	}
	if strings.HasSuffix(strings.ToLower(o.Path), ".root") {
		return FormatROOT
	}
	return FormatSQLite
}

// RunSettings bounds a run.
type RunSettings struct {
	MaxEvents   int64 `yaml:"max_events,omitempty" json:"max_events,omitempty"`
	MaxFailures int   `yaml:"max_failures,omitempty" json:"max_failures,omitempty"`
}

// Filter declares a named filter.
type Filter struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
	// Expr is the boolean expression of an "expr" filter.
	Expr   string         `yaml:"expr,omitempty" json:"expr,omitempty"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// ScaleFactor declares a named scale factor.
type ScaleFactor struct {
	Name   string         `yaml:"name" json:"name"`
	Type   string         `yaml:"type" json:"type"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Module declares one node of the module graph.
type Module struct {
	Name    string   `yaml:"name" json:"name"`
	Type    string   `yaml:"type" json:"type"`
	Depends []string `yaml:"depends,omitempty" json:"depends,omitempty"`

	// Filters lists filter names for a "filter" module.
	Filters []string `yaml:"filters,omitempty" json:"filters,omitempty"`
	// ScaleFactors lists scale factor names for a "weight" module.
	ScaleFactors []string `yaml:"scale_factors,omitempty" json:"scale_factors,omitempty"`

	// Require gates a "histograms" module on upstream filter modules.
	Require []string `yaml:"require,omitempty" json:"require,omitempty"`
	// Weight names an upstream "weight" module whose weight multiplies every fill.
	Weight     string      `yaml:"weight,omitempty" json:"weight,omitempty"`
	Histograms []Histogram `yaml:"histograms,omitempty" json:"histograms,omitempty"`
}

// Histogram declares one histogram of a "histograms" module.
type Histogram struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`

	Bins int     `yaml:"bins" json:"bins"`
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
	// Value selects the extractor: "var:NAME", "value:NAME",
	// "resolution:NAME" or "truth_vs_reco:NAME".
	Value string `yaml:"value" json:"value"`

	// Y makes the histogram two-dimensional.
	Y *Axis `yaml:"y,omitempty" json:"y,omitempty"`

	Filters      []string `yaml:"filters,omitempty" json:"filters,omitempty"`
	ScaleFactors []string `yaml:"scale_factors,omitempty" json:"scale_factors,omitempty"`
}

// Axis is the second axis of a 2-D histogram.
type Axis struct {
	Bins  int     `yaml:"bins" json:"bins"`
	Low   float64 `yaml:"low" json:"low"`
	High  float64 `yaml:"high" json:"high"`
	Value string  `yaml:"value,omitempty" json:"value,omitempty"`
}

// Validate checks the job for structural problems: missing names, unknown
// types, duplicate declarations and references to undeclared filters or
// scale factors. Graph-level checks (dependency cycles, unknown module
// dependencies, histogram name collisions) are left to the module graph.
// All problems found are joined.
func (j Job) Validate() error {
	return j.ValidateWith(nil, nil)
}

// ValidateWith is Validate for a job that may also reference filters and
// scale factors defined outside the job file, such as those registered in
// Go by an embedding program. A job declaration may not reuse one of those
// names.
func (j Job) ValidateWith(externalFilters, externalScaleFactors []string) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)})
	}

	if j.Input.Events == "" {
		add("input.events", "is required")
	}
	if f := j.Output.ResolvedFormat(); f != FormatSQLite && f != FormatROOT {
		add("output.format", "unknown format %q", f)
	}
	if j.Run.MaxEvents < 0 {
		add("run.max_events", "must not be negative")
	}

	external := make(map[string]bool)
	filters := make(map[string]bool)
	for _, name := range externalFilters {
		filters[name] = true
		external["filter "+name] = true
	}
	for i, f := range j.Filters {
		field := fmt.Sprintf("filters[%d]", i)
		switch {
		case f.Name == "":
			add(field+".name", "is required")
		case external["filter "+f.Name]:
			add(field+".name", "filter %q is already defined outside the job", f.Name)
		case filters[f.Name]:
			add(field+".name", "duplicate filter %q", f.Name)
		}
		filters[f.Name] = true

		switch f.Type {
		case FilterExpr:
			if f.Expr == "" {
				add(field+".expr", "is required for an expr filter")
			}
		case FilterTrigger, FilterMinCount:
		default:
			add(field+".type", "unknown filter type %q", f.Type)
		}
	}

	sfs := make(map[string]bool)
	for _, name := range externalScaleFactors {
		sfs[name] = true
		external["scale factor "+name] = true
	}
	for i, sf := range j.ScaleFactors {
		field := fmt.Sprintf("scale_factors[%d]", i)
		switch {
		case sf.Name == "":
			add(field+".name", "is required")
		case external["scale factor "+sf.Name]:
			add(field+".name", "scale factor %q is already defined outside the job", sf.Name)
		case sfs[sf.Name]:
			add(field+".name", "duplicate scale factor %q", sf.Name)
		}
		sfs[sf.Name] = true

		switch sf.Type {
		case ScaleFactorConstant, ScaleFactorVar, ScaleFactorBinned:
		default:
			add(field+".type", "unknown scale factor type %q", sf.Type)
		}
	}

	if len(j.Modules) == 0 {
		add("modules", "at least one module is required")
	}
	for i, m := range j.Modules {
		field := fmt.Sprintf("modules[%d]", i)
		if m.Name == "" {
			add(field+".name", "is required")
		}
		for _, name := range m.Filters {
			if !filters[name] {
				add(field+".filters", "undeclared filter %q", name)
			}
		}
		for _, name := range m.ScaleFactors {
			if !sfs[name] {
				add(field+".scale_factors", "undeclared scale factor %q", name)
			}
		}

		switch m.Type {
		case ModuleFilter:
			if len(m.Filters) == 0 {
				add(field+".filters", "a filter module needs at least one filter")
			}
		case ModuleWeight:
		case ModuleHistograms:
			if len(m.Histograms) == 0 {
				add(field+".histograms", "a histograms module needs at least one histogram")
			}
			for k, h := range m.Histograms {
				hf := fmt.Sprintf("%s.histograms[%d]", field, k)
				if h.Name == "" {
					add(hf+".name", "is required")
				}
				if h.Value == "" {
					add(hf+".value", "is required")
				}
				for _, name := range h.Filters {
					if !filters[name] {
						add(hf+".filters", "undeclared filter %q", name)
					}
				}
				for _, name := range h.ScaleFactors {
					if !sfs[name] {
						add(hf+".scale_factors", "undeclared scale factor %q", name)
					}
				}
			}
		default:
			add(field+".type", "unknown module type %q", m.Type)
		}
	}

	return errors.Join(errs...)
}
