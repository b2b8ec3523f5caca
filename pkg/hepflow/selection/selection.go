package selection

import (
	"errors"
	"fmt"
	"math"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
)

// ErrNonFinite indicates a scale factor produced NaN or ±Inf.
var ErrNonFinite = errors.New("non-finite weight")

// FilterEvaluationError reports a filter that could not be evaluated.
type FilterEvaluationError struct {
	Filter string
	Err    error
}

// Error implements the error interface.
func (e *FilterEvaluationError) Error() string {
	return fmt.Sprintf("filter %s: %v", e.Filter, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FilterEvaluationError) Unwrap() error {
	return e.Err
}

// WeightEvaluationError reports a scale factor that produced an invalid weight.
type WeightEvaluationError struct {
	ScaleFactor string
	// Value is the offending value (NaN when the scale factor returned an error).
	Value float64
	Err   error
}

// Error implements the error interface.
func (e *WeightEvaluationError) Error() string {
	return fmt.Sprintf("scale factor %s: %v", e.ScaleFactor, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *WeightEvaluationError) Unwrap() error {
	return e.Err
}

// Outcome is the composed decision for one event.
type Outcome int

const (
	// Pass means every filter passed and the weight is valid.
	Pass Outcome = iota
	// FailFilter means a filter returned an empty tag.
	FailFilter
	// FilterError means a filter could not be evaluated.
	FilterError
	// WeightError means a scale factor yielded an error or a non-finite value.
	WeightError
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case FailFilter:
		return "filter"
	case FilterError:
		return "filter_error"
	case WeightError:
		return "weight_error"
	default:
		return "unknown"
	}
}

// Verdict is the result of applying a Selection to one event.
type Verdict struct {
	Outcome Outcome

	// Weight is the product of all scale factors. Only meaningful on Pass.
	Weight float64

	// Tags holds the tags of the filters that passed, in order.
	Tags []string

	// FailedAt is the index of the filter (FailFilter, FilterError) or scale
	// factor (WeightError) that stopped evaluation, or -1.
	FailedAt int

	// Err is a *FilterEvaluationError or *WeightEvaluationError.
	Err error
}

// Passed reports whether the event passed with a valid weight.
func (v Verdict) Passed() bool {
	return v.Outcome == Pass
}

// Selection composes an ordered list of filters (AND) with an ordered list
// of scale factors (product). It holds no mutable state.
type Selection struct {
	filters      []Filter
	scaleFactors []ScaleFactor
}

// New creates a Selection. The slices are copied.
func New(filters []Filter, scaleFactors []ScaleFactor) Selection {
	return Selection{
		filters:      append([]Filter(nil), filters...),
		scaleFactors: append([]ScaleFactor(nil), scaleFactors...),
	}
}

// Filters returns the attached filters in declaration order.
func (s Selection) Filters() []Filter {
	return append([]Filter(nil), s.filters...)
}

// ScaleFactors returns the attached scale factors in declaration order.
func (s Selection) ScaleFactors() []ScaleFactor {
	return append([]ScaleFactor(nil), s.scaleFactors...)
}

// Apply evaluates the filters in order, stopping at the first failure, and
// then multiplies the scale factors. The verdict depends only on v and the
// attached filters and scale factors.
func (s Selection) Apply(v event.View) Verdict {
	tags := make([]string, 0, len(s.filters))
	for i, f := range s.filters {
		tag, err := f.Evaluate(v)
		if err != nil {
			return Verdict{
				Outcome:  FilterError,
				Tags:     tags,
				FailedAt: i,
				Err:      &FilterEvaluationError{Filter: f.Name(), Err: err},
			}
		}
		if tag == "" {
			return Verdict{Outcome: FailFilter, Tags: tags, FailedAt: i}
		}
		tags = append(tags, tag)
	}

	weight, idx, err := s.weight(v)
	if err != nil {
		return Verdict{Outcome: WeightError, Tags: tags, FailedAt: idx, Err: err}
	}
	return Verdict{Outcome: Pass, Weight: weight, Tags: tags, FailedAt: -1}
}

// Weight evaluates only the scale factors.
func (s Selection) Weight(v event.View) (float64, error) {
	w, _, err := s.weight(v)
	return w, err
}

func (s Selection) weight(v event.View) (float64, int, error) {
	weight := 1.0
	for i, sf := range s.scaleFactors {
		w, err := sf.Evaluate(v)
		if err != nil {
			return 0, i, &WeightEvaluationError{ScaleFactor: sf.Name(), Value: math.NaN(), Err: err}
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, i, &WeightEvaluationError{ScaleFactor: sf.Name(), Value: w, Err: ErrNonFinite}
		}
		weight *= w
		if math.IsInf(weight, 0) {
			return 0, i, &WeightEvaluationError{ScaleFactor: sf.Name(), Value: weight, Err: ErrNonFinite}
		}
	}
	return weight, -1, nil
}
