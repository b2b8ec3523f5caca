package hist

import (
	"errors"
	"fmt"
	"math"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
)

// ErrZeroTruth is returned by a resolution extractor when the truth value is
// zero and the relative difference is undefined.
var ErrZeroTruth = errors.New("truth value is zero")

// Kind tags the extractor variant.
type Kind int

const (
	// KindScalar extracts values from a single view.
	KindScalar Kind = iota
	// KindPair extracts values from a truth/reco pair.
	KindPair
	// KindResolution extracts the relative difference (reco-truth)/truth of
	// one quantity.
	KindResolution
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindPair:
		return "pair"
	case KindResolution:
		return "resolution"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ValueFunc extracts one number from a view.
type ValueFunc func(v event.View) (float64, error)

// PairFunc extracts one number from a truth/reco pair.
type PairFunc func(truth, reco event.View) (float64, error)

// Extractor produces the fill values of a Spec, one per dimension.
// The zero value is invalid.
type Extractor struct {
	kind   Kind
	scalar []ValueFunc
	pair   []PairFunc
}

// Scalar extracts one value per function from a single view. Pass one
// function for a 1-D histogram and two (x, y) for a 2-D one.
func Scalar(fns ...ValueFunc) Extractor {
	return Extractor{kind: KindScalar, scalar: fns}
}

// Pair extracts one value per function from a truth/reco pair.
func Pair(fns ...PairFunc) Extractor {
	return Extractor{kind: KindPair, pair: fns}
}

// TruthVsReco is a 2-D pair extractor: x is q on the truth view, y is q on
// the reco view.
func TruthVsReco(q ValueFunc) Extractor {
	return Pair(
		func(truth, _ event.View) (float64, error) { return q(truth) },
		func(_, reco event.View) (float64, error) { return q(reco) },
	)
}

// Resolution is a 1-D pair extractor of (q(reco) - q(truth)) / q(truth).
func Resolution(q ValueFunc) Extractor {
	return Extractor{
		kind: KindResolution,
		pair: []PairFunc{func(truth, reco event.View) (float64, error) {
			t, err := q(truth)
			if err != nil {
				return 0, fmt.Errorf("truth: %w", err)
			}
			r, err := q(reco)
			if err != nil {
				return 0, fmt.Errorf("reco: %w", err)
			}
			if t == 0 {
				return 0, ErrZeroTruth
			}
			return (r - t) / t, nil
		}},
	}
}

// Kind returns the variant.
func (e Extractor) Kind() Kind { return e.kind }

// Paired reports whether the extractor needs a truth companion.
func (e Extractor) Paired() bool { return e.kind != KindScalar }

// Dims returns the number of values produced per fill.
func (e Extractor) Dims() int {
	if e.Paired() {
		return len(e.pair)
	}
	return len(e.scalar)
}

func (e Extractor) validate() error {
	if e.Dims() == 0 {
		return errors.New("extractor produces no values")
	}
	for _, fn := range e.scalar {
		if fn == nil {
			return errors.New("extractor function cannot be nil")
		}
	}
	for _, fn := range e.pair {
		if fn == nil {
			return errors.New("extractor function cannot be nil")
		}
	}
	return nil
}

// values runs the extractor. truth is ignored by scalar extractors.
func (e Extractor) values(truth, reco event.View, dst []float64) error {
	for i := range dst {
		var (
			x   float64
			err error
		)
		if e.Paired() {
			x, err = e.pair[i](truth, reco)
		} else {
			x, err = e.scalar[i](reco)
		}
		if err != nil {
			return err
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("value %d is %g", i, x)
		}
		dst[i] = x
	}
	return nil
}

// Var returns a ValueFunc reading the named event variable.
func Var(name string) ValueFunc {
	return func(v event.View) (float64, error) {
		x, ok := v.Var(name)
		if !ok {
			return 0, fmt.Errorf("event variable %q not present", name)
		}
		return x, nil
	}
}

// Const returns a ValueFunc that always yields x.
func Const(x float64) ValueFunc {
	return func(event.View) (float64, error) { return x, nil }
}
