package selection_test

import (
	"math"
	"testing"

	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstant(t *testing.T) {
	sf := selection.Constant("lumi", 0.25)
	assert.Equal(t, "lumi", sf.Name())

	w, err := sf.Evaluate(rec(1))
	require.NoError(t, err)
	assert.Equal(t, 0.25, w)
}

func TestFromVar(t *testing.T) {
	sf := selection.FromVar("gen", "genWeight")

	w, err := sf.Evaluate(rec(1).WithVar("genWeight", -1.5))
	require.NoError(t, err)
	assert.Equal(t, -1.5, w)

	w, err = sf.Evaluate(rec(2))
	assert.Error(t, err)
	assert.True(t, math.IsNaN(w))
}

func TestNewBinned_Validation(t *testing.T) {
	_, err := selection.NewBinned("", "npv", []float64{0, 1}, []float64{1}, false)
	assert.Error(t, err)

	_, err = selection.NewBinned("pu", "npv", []float64{0}, nil, false)
	assert.Error(t, err)

	_, err = selection.NewBinned("pu", "npv", []float64{0, 10, 20}, []float64{1}, false)
	assert.Error(t, err)

	_, err = selection.NewBinned("pu", "npv", []float64{0, 10, 10}, []float64{1, 2}, false)
	assert.Error(t, err)
}

func TestBinned_Lookup(t *testing.T) {
	sf, err := selection.NewBinned("pu", "npv", []float64{0, 10, 20, 40}, []float64{1.2, 1.0, 0.8}, false)
	require.NoError(t, err)

	testCases := []struct {
		npv  float64
		want float64
	}{
		{0, 1.2},
		{9.99, 1.2},
		{10, 1.0},
		{19, 1.0},
		{20, 0.8},
		{39.5, 0.8},
	}
	for _, tc := range testCases {
		w, err := sf.Evaluate(rec(1).WithVar("npv", tc.npv))
		require.NoError(t, err, "npv=%v", tc.npv)
		assert.Equal(t, tc.want, w, "npv=%v", tc.npv)
	}

	_, err = sf.Evaluate(rec(1).WithVar("npv", 40))
	assert.Error(t, err, "upper edge is outside the table")
	_, err = sf.Evaluate(rec(1).WithVar("npv", -1))
	assert.Error(t, err)
	_, err = sf.Evaluate(rec(1))
	assert.Error(t, err)
}

func TestBinned_Clamp(t *testing.T) {
	sf, err := selection.NewBinned("pu", "npv", []float64{0, 10, 20}, []float64{1.5, 0.5}, true)
	require.NoError(t, err)

	w, err := sf.Evaluate(rec(1).WithVar("npv", -3))
	require.NoError(t, err)
	assert.Equal(t, 1.5, w)

	w, err = sf.Evaluate(rec(1).WithVar("npv", 100))
	require.NoError(t, err)
	assert.Equal(t, 0.5, w)
}

func TestBinned_NaNInput(t *testing.T) {
	for _, clamp := range []bool{false, true} {
		sf, err := selection.NewBinned("pu", "npv", []float64{0, 10, 20}, []float64{1, 2}, clamp)
		require.NoError(t, err)

		var w float64
		require.NotPanics(t, func() {
			w, err = sf.Evaluate(rec(1).WithVar("npv", math.NaN()))
		}, "clamp=%v", clamp)
		assert.ErrorContains(t, err, "npv is NaN")
		assert.True(t, math.IsNaN(w))
	}
}
