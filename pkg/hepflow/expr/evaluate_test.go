package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_Comparisons(t *testing.T) {
	tests := []struct {
		name string
		expr string
		vars map[string]any
		want bool
	}{
		{"string equality single quotes", "flavour == 'mu'", map[string]any{"flavour": "mu"}, true},
		{"string equality double quotes", `flavour == "e"`, map[string]any{"flavour": "mu"}, false},
		{"int equals float", "n_jets == 2", map[string]any{"n_jets": 2.0}, true},
		{"float equality", "met == 30.5", map[string]any{"met": 30.5}, true},
		{"not equal", "n_jets != 2", map[string]any{"n_jets": int64(3)}, true},
		{"greater", "met > 30", map[string]any{"met": 30.1}, true},
		{"greater boundary", "met > 30", map[string]any{"met": 30.0}, false},
		{"greater or equal boundary", "met >= 30", map[string]any{"met": 30.0}, true},
		{"less", "eta < 2.4", map[string]any{"eta": 2.5}, false},
		{"less or equal", "eta <= 2.4", map[string]any{"eta": 2.4}, true},
		{"negative literal", "dz > -0.5", map[string]any{"dz": -0.2}, true},
		{"scientific literal", "iso < 1e-1", map[string]any{"iso": 0.05}, true},
		{"bool equality", "HLT_IsoMu24 == true", map[string]any{"HLT_IsoMu24": true}, true},
		{"contains", "dataset contains 'DY'", map[string]any{"dataset": "DYJetsToLL"}, true},
		{"two variables", "pt1 > pt2", map[string]any{"pt1": 40.0, "pt2": 30.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.expr, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_LogicalOperators(t *testing.T) {
	vars := map[string]any{"a": true, "b": false, "met": 40.0, "n_mu": int64(2)}

	tests := []struct {
		expr string
		want bool
	}{
		{"a and b", false},
		{"a or b", true},
		{"a && b", false},
		{"a || b", true},
		{"not b", true},
		{"!a", false},
		{"not not a", true},
		{"n_mu >= 2 and met > 30", true},
		{"n_mu >= 3 or met > 30", true},
		// 'and' binds tighter than 'or'.
		{"a or b and b", true},
		{"(a or b) and b", false},
		{"not (met > 30 and n_mu == 2)", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Truthiness(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want bool
	}{
		{"nil", nil, false},
		{"true", true, true},
		{"false", false, false},
		{"empty string", "", false},
		{"string", "x", true},
		{"zero int", int64(0), false},
		{"int", int64(3), true},
		{"zero float", 0.0, false},
		{"float", 0.5, true},
		{"struct", struct{}{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval("x", map[string]any{"x": tt.val})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_SyntaxErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"met >",
		"met > 30 and",
		"(met > 30",
		"met > 30)",
		"flavour == 'mu",
		"met = 30",
		"met > 30 met",
		"and met",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestProgram_UnknownVariable(t *testing.T) {
	prog, err := Compile("met > 30")
	require.NoError(t, err)

	_, err = prog.Eval(MapVars{})
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestProgram_ShortCircuitSkipsUnknown(t *testing.T) {
	prog, err := Compile("a or missing > 1")
	require.NoError(t, err)

	got, err := prog.Eval(MapVars{"a": true})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestProgram_Variables(t *testing.T) {
	prog, err := Compile("n_mu >= 2 and (met > 30 or HLT_IsoMu24) and n_mu < 5")
	require.NoError(t, err)

	assert.Equal(t, []string{"HLT_IsoMu24", "met", "n_mu"}, prog.Variables())
	assert.Equal(t, "n_mu >= 2 and (met > 30 or HLT_IsoMu24) and n_mu < 5", prog.String())
}

func TestProgram_Deterministic(t *testing.T) {
	prog := MustCompile("met > 30 and n_mu == 2")
	vars := MapVars{"met": 31.0, "n_mu": int64(2)}

	first, err := prog.Eval(vars)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := prog.Eval(vars)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("met >") })
}

func TestEvaluator_WithCustomOperator(t *testing.T) {
	e := New(WithCustomOperator("within", func(l, r any) bool {
		return math.Abs(ToFloat64(l)) < ToFloat64(r)
	}))

	prog, err := e.Compile("eta within 2.4 and pt > 20")
	require.NoError(t, err)

	pass, err := prog.Eval(MapVars{"eta": -2.1, "pt": 25.0})
	require.NoError(t, err)
	assert.True(t, pass)

	pass, err = prog.Eval(MapVars{"eta": -2.6, "pt": 25.0})
	require.NoError(t, err)
	assert.False(t, pass)

	// Default evaluator does not know the operator.
	_, err = Compile("eta within 2.4")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		left, right any
		op          string
		want        bool
	}{
		{1, 1.0, "==", true},
		{"a", "b", "!=", true},
		{2, 3, "<", true},
		{3, 2, ">", true},
		{2, 2, "<=", true},
		{2, 2, ">=", true},
		{"muons", "mu", "contains", true},
	}
	for _, tt := range tests {
		got, err := Compare(tt.left, tt.right, tt.op)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v %s %v", tt.left, tt.op, tt.right)
	}

	_, err := Compare(1, 2, "~")
	assert.Error(t, err)
}

func TestToFloat64(t *testing.T) {
	assert.Equal(t, 1.5, ToFloat64(1.5))
	assert.Equal(t, 3.0, ToFloat64(3))
	assert.Equal(t, 3.0, ToFloat64(int64(3)))
	assert.Equal(t, 1.0, ToFloat64(true))
	assert.Equal(t, 2.5, ToFloat64("2.5"))
	assert.Equal(t, 0.0, ToFloat64([]int{1}))
}
