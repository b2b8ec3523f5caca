package hist

import (
	"errors"
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
)

// ErrUnmatched indicates a truth/reco pair whose views belong to different
// events, or a paired fill without a truth companion.
var ErrUnmatched = errors.New("unmatched truth/reco pair")

// ExtractError reports an extractor failure or a non-finite extracted value.
type ExtractError struct {
	Histogram string
	Err       error
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	return fmt.Sprintf("histogram %s: extract: %v", e.Histogram, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one fill attempt.
type Outcome int

const (
	// Filled means the accumulator received the values.
	Filled Outcome = iota
	// SkipFilter means a filter returned an empty tag.
	SkipFilter
	// SkipFilterError means a filter could not be evaluated.
	SkipFilterError
	// SkipWeight means a scale factor yielded an error or a non-finite value.
	SkipWeight
	// SkipExtract means the extractor failed or produced a non-finite value.
	SkipExtract
	// SkipUnmatched means the truth and reco views were not of the same event.
	SkipUnmatched
)

// String returns the outcome name used in persisted stats.
func (o Outcome) String() string {
	switch o {
	case Filled:
		return "filled"
	case SkipFilter:
		return "filter"
	case SkipFilterError:
		return "filter_error"
	case SkipWeight:
		return "weight"
	case SkipExtract:
		return "extract"
	case SkipUnmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// Result describes one fill attempt.
type Result struct {
	Outcome Outcome
	// Weight is the fill weight. Only meaningful when Filled.
	Weight float64
	// Err explains a skip other than SkipFilter.
	Err error
}

// Filled reports whether the accumulator was filled.
func (r Result) Filled() bool { return r.Outcome == Filled }

// PairState tracks a truth/reco pair through a paired fill.
type PairState int

const (
	Unmatched PairState = iota
	Matched
	PairFilled
)

// String returns the state name.
func (s PairState) String() string {
	switch s {
	case Unmatched:
		return "unmatched"
	case Matched:
		return "matched"
	case PairFilled:
		return "filled"
	default:
		return "unknown"
	}
}

// PairResult is the outcome of FillPair. A Matched pair that was not filled
// carries the skip outcome in Result.
type PairResult struct {
	State PairState
	Result
}

// Stats counts fill attempts by outcome. Attempts always equals Filled plus
// every skip counter.
type Stats struct {
	Attempts        int64
	Filled          int64
	SkipFilter      int64
	SkipFilterError int64
	SkipWeight      int64
	SkipExtract     int64
	Unmatched       int64
	// Matched counts pairs whose views carried the same event ID.
	Matched int64

	// SumW is the total weight filled, including under- and overflow.
	SumW float64

	// FilterPassed counts passes per attached filter, in order. Filters
	// after the first failing one are not evaluated.
	FilterPassed []int64
}

// Skipped returns the number of attempts that did not fill.
func (s Stats) Skipped() int64 {
	return s.SkipFilter + s.SkipFilterError + s.SkipWeight + s.SkipExtract + s.Unmatched
}

// Map returns the counters keyed by outcome name.
func (s Stats) Map() map[string]int64 {
	return map[string]int64{
		"attempts":               s.Attempts,
		Filled.String():          s.Filled,
		SkipFilter.String():      s.SkipFilter,
		SkipFilterError.String(): s.SkipFilterError,
		SkipWeight.String():      s.SkipWeight,
		SkipExtract.String():     s.SkipExtract,
		SkipUnmatched.String():   s.Unmatched,
		"matched":                s.Matched,
	}
}

type options struct {
	title        string
	filters      []selection.Filter
	scaleFactors []selection.ScaleFactor
}

// Option configures a Spec.
type Option func(*options)

// WithTitle sets the histogram title, used by ROOT output and plots.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithFilters appends filters. All must pass for a fill.
func WithFilters(filters ...selection.Filter) Option {
	return func(o *options) {
		o.filters = append(o.filters, filters...)
	}
}

// WithScaleFactors appends scale factors. The fill weight is their product.
func WithScaleFactors(sfs ...selection.ScaleFactor) Option {
	return func(o *options) {
		o.scaleFactors = append(o.scaleFactors, sfs...)
	}
}

// Spec is a named histogram with its fill contract.
//
// The binning is fixed at construction. A Spec is not safe for concurrent
// use; the driver fills it from one goroutine.
type Spec struct {
	name      string
	title     string
	x, y      Axis
	dims      int
	sel       selection.Selection
	extractor Extractor

	h1 *hbook.H1D
	h2 *hbook.H2D

	underflow float64
	overflow  float64
	stats     Stats
	vals      []float64
}

// New1D creates a one-dimensional spec.
func New1D(name string, x Axis, ex Extractor, opts ...Option) (*Spec, error) {
	s, err := newSpec(name, 1, x, Axis{}, ex, opts)
	if err != nil {
		return nil, err
	}
	s.h1 = hbook.NewH1D(x.Bins, x.Low, x.High)
	return s, nil
}

// New2D creates a two-dimensional spec.
func New2D(name string, x, y Axis, ex Extractor, opts ...Option) (*Spec, error) {
	if err := y.Validate(); err != nil {
		return nil, &hepflow.ConfigurationError{Msg: fmt.Sprintf("histogram %s: y %v", name, err)}
	}
	s, err := newSpec(name, 2, x, y, ex, opts)
	if err != nil {
		return nil, err
	}
	s.h2 = hbook.NewH2D(x.Bins, x.Low, x.High, y.Bins, y.Low, y.High)
	return s, nil
}

func newSpec(name string, dims int, x, y Axis, ex Extractor, opts []Option) (*Spec, error) {
	if name == "" {
		return nil, &hepflow.ConfigurationError{Msg: "histogram name cannot be empty"}
	}
	if err := x.Validate(); err != nil {
		return nil, &hepflow.ConfigurationError{Msg: fmt.Sprintf("histogram %s: x %v", name, err)}
	}
	if err := ex.validate(); err != nil {
		return nil, &hepflow.ConfigurationError{Msg: fmt.Sprintf("histogram %s: %v", name, err)}
	}
	if ex.Dims() != dims {
		return nil, &hepflow.ConfigurationError{
			Msg: fmt.Sprintf("histogram %s: %s extractor yields %d values for a %d-D histogram", name, ex.Kind(), ex.Dims(), dims),
		}
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	for _, f := range o.filters {
		if f == nil {
			return nil, &hepflow.ConfigurationError{Msg: fmt.Sprintf("histogram %s: filter cannot be nil", name)}
		}
	}
	for _, sf := range o.scaleFactors {
		if sf == nil {
			return nil, &hepflow.ConfigurationError{Msg: fmt.Sprintf("histogram %s: scale factor cannot be nil", name)}
		}
	}

	return &Spec{
		name:      name,
		title:     o.title,
		x:         x,
		y:         y,
		dims:      dims,
		sel:       selection.New(o.filters, o.scaleFactors),
		extractor: ex,
		stats:     Stats{FilterPassed: make([]int64, len(o.filters))},
		vals:      make([]float64, dims),
	}, nil
}

// Name returns the histogram name.
func (s *Spec) Name() string { return s.name }

// Title returns the histogram title.
func (s *Spec) Title() string { return s.title }

// Dims returns 1 or 2.
func (s *Spec) Dims() int { return s.dims }

// X returns the x axis.
func (s *Spec) X() Axis { return s.x }

// Y returns the y axis of a 2-D spec.
func (s *Spec) Y() Axis { return s.y }

// Paired reports whether the spec compares truth and reco views.
func (s *Spec) Paired() bool { return s.extractor.Paired() }

// Kind returns the extractor variant.
func (s *Spec) Kind() Kind { return s.extractor.Kind() }

// Selection returns the attached filters and scale factors.
func (s *Spec) Selection() selection.Selection { return s.sel }

// Stats returns a copy of the fill counters.
func (s *Spec) Stats() Stats {
	st := s.stats
	st.FilterPassed = append([]int64(nil), s.stats.FilterPassed...)
	return st
}

// Fill runs one fill attempt on v. A paired spec takes the truth companion
// from event.TruthOf(v) and behaves like FillPair.
func (s *Spec) Fill(v event.View) Result {
	return s.FillWeighted(v, 1)
}

// FillWeighted is Fill with an extra base weight multiplied into the scale
// factor product, e.g. a shared event weight computed upstream. A
// non-finite base weight skips the fill as SkipWeight.
func (s *Spec) FillWeighted(v event.View, base float64) Result {
	if s.Paired() {
		return s.fillPair(event.TruthOf(v), v, base).Result
	}
	s.stats.Attempts++
	return s.fill(nil, v, base)
}

// FillPair runs one paired fill attempt. The pair is Matched when both
// views are present and carry the same event ID; filters and scale factors
// are then evaluated on the reco view and the extractor sees both.
func (s *Spec) FillPair(truth, reco event.View) PairResult {
	return s.fillPair(truth, reco, 1)
}

func (s *Spec) fillPair(truth, reco event.View, base float64) PairResult {
	s.stats.Attempts++

	if truth == nil || reco == nil {
		s.stats.Unmatched++
		return PairResult{State: Unmatched, Result: Result{Outcome: SkipUnmatched, Err: ErrUnmatched}}
	}
	if truth.ID() != reco.ID() {
		s.stats.Unmatched++
		return PairResult{State: Unmatched, Result: Result{
			Outcome: SkipUnmatched,
			Err:     fmt.Errorf("%w: truth %s, reco %s", ErrUnmatched, truth.ID(), reco.ID()),
		}}
	}
	s.stats.Matched++

	res := s.fill(truth, reco, base)
	if res.Filled() {
		return PairResult{State: PairFilled, Result: res}
	}
	return PairResult{State: Matched, Result: res}
}

// fill runs the filter, weight, extract and accumulate steps. The caller
// has counted the attempt.
func (s *Spec) fill(truth, reco event.View, base float64) Result {
	verdict := s.sel.Apply(reco)
	for i := range verdict.Tags {
		s.stats.FilterPassed[i]++
	}

	switch verdict.Outcome {
	case selection.FailFilter:
		s.stats.SkipFilter++
		return Result{Outcome: SkipFilter}
	case selection.FilterError:
		s.stats.SkipFilterError++
		return Result{Outcome: SkipFilterError, Err: verdict.Err}
	case selection.WeightError:
		s.stats.SkipWeight++
		return Result{Outcome: SkipWeight, Err: verdict.Err}
	}

	w := verdict.Weight * base
	if math.IsNaN(w) || math.IsInf(w, 0) {
		s.stats.SkipWeight++
		return Result{Outcome: SkipWeight, Err: &selection.WeightEvaluationError{
			ScaleFactor: "event", Value: w, Err: selection.ErrNonFinite,
		}}
	}

	if err := s.extractor.values(truth, reco, s.vals); err != nil {
		s.stats.SkipExtract++
		return Result{Outcome: SkipExtract, Err: &ExtractError{Histogram: s.name, Err: err}}
	}

	s.accumulate(w)
	s.stats.Filled++
	s.stats.SumW += w
	return Result{Outcome: Filled, Weight: w}
}

func (s *Spec) accumulate(w float64) {
	pos := s.x.position(s.vals[0])
	if s.dims == 2 {
		px, py := pos, s.y.position(s.vals[1])
		switch {
		case px < 0 || py < 0:
			pos = -1
		case px > 0 || py > 0:
			pos = 1
		}
		s.h2.Fill(s.vals[0], s.vals[1], w)
	} else {
		s.h1.Fill(s.vals[0], w)
	}

	switch {
	case pos < 0:
		s.underflow += w
	case pos > 0:
		s.overflow += w
	}
}

// Content returns the in-range bin contents and sums of squared weights.
// For 2-D specs the x index varies fastest.
func (s *Spec) Content() (content, sumw2 []float64) {
	if s.dims == 2 {
		bins := s.h2.Binning.Bins
		content = make([]float64, len(bins))
		sumw2 = make([]float64, len(bins))
		for i := range bins {
			content[i] = bins[i].SumW()
			sumw2[i] = bins[i].SumW2()
		}
		return content, sumw2
	}

	bins := s.h1.Binning.Bins
	content = make([]float64, len(bins))
	sumw2 = make([]float64, len(bins))
	for i := range bins {
		content[i] = bins[i].SumW()
		sumw2[i] = bins[i].SumW2()
	}
	return content, sumw2
}

// Outflow returns the summed weights below and above the axis range. A 2-D
// fill below either axis counts as underflow.
func (s *Spec) Outflow() (underflow, overflow float64) {
	return s.underflow, s.overflow
}

// Histogram returns the persisted form of the spec.
func (s *Spec) Histogram() output.Histogram {
	content, sumw2 := s.Content()
	h := output.Histogram{
		Name:      s.name,
		Title:     s.title,
		Dims:      s.dims,
		XEdges:    s.x.Edges(),
		Content:   content,
		SumW2:     sumw2,
		Underflow: s.underflow,
		Overflow:  s.overflow,
		Entries:   s.stats.Filled,
		Stats:     s.stats.Map(),
		H1:        s.h1,
		H2:        s.h2,
	}
	if s.dims == 2 {
		h.YEdges = s.y.Edges()
	}
	return h
}
