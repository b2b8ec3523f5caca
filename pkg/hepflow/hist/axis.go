// Package hist provides histogram specifications: fixed-binning 1-D and 2-D
// accumulators gated by selection filters, weighted by scale factors, and fed
// by an extractor resolved once at construction. Paired specs compare truth
// and reconstructed views of the same event.
//
// Accumulation is delegated to go-hep's hbook; a Spec adds the fill
// contract and the per-outcome accounting on top of it.
package hist

import (
	"fmt"
	"math"
)

// Axis is a fixed, uniform binning over [Low, High).
type Axis struct {
	Bins int     `json:"bins" yaml:"bins"`
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Validate reports whether the axis can back a histogram.
func (a Axis) Validate() error {
	if a.Bins < 1 {
		return fmt.Errorf("axis needs at least one bin, got %d", a.Bins)
	}
	if math.IsNaN(a.Low) || math.IsInf(a.Low, 0) || math.IsNaN(a.High) || math.IsInf(a.High, 0) {
		return fmt.Errorf("axis range [%g, %g) is not finite", a.Low, a.High)
	}
	if !(a.High > a.Low) {
		return fmt.Errorf("axis range [%g, %g) is empty", a.Low, a.High)
	}
	return nil
}

// Width returns the bin width.
func (a Axis) Width() float64 {
	return (a.High - a.Low) / float64(a.Bins)
}

// Edges returns the Bins+1 bin edges.
func (a Axis) Edges() []float64 {
	edges := make([]float64, a.Bins+1)
	w := a.Width()
	for i := range edges {
		edges[i] = a.Low + float64(i)*w
	}
	edges[a.Bins] = a.High
	return edges
}

// position classifies x as below (-1), inside (0) or above (+1) the range.
func (a Axis) position(x float64) int {
	switch {
	case x < a.Low:
		return -1
	case x >= a.High:
		return 1
	default:
		return 0
	}
}
