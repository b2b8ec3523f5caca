package selection_test

import (
	"errors"
	"testing"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(n uint64) *event.Record {
	return event.NewRecord(event.ID{Run: 1, Event: n})
}

func TestNewPredicate(t *testing.T) {
	f := selection.NewPredicate("ht", func(v event.View) bool {
		ht, _ := v.Var("ht")
		return ht > 200
	})
	assert.Equal(t, "ht", f.Name())

	tag, err := f.Evaluate(rec(1).WithVar("ht", 250))
	require.NoError(t, err)
	assert.Equal(t, "ht", tag)

	tag, err = f.Evaluate(rec(2).WithVar("ht", 150))
	require.NoError(t, err)
	assert.Empty(t, tag)
}

func TestNewFilter_PanicsOnBadArguments(t *testing.T) {
	assert.PanicsWithValue(t, "selection: filter name cannot be empty", func() {
		selection.NewFilter("", func(event.View) (string, error) { return "", nil })
	})
	assert.PanicsWithValue(t, "selection: filter function cannot be nil", func() {
		selection.NewFilter("x", nil)
	})
}

func TestNewExprFilter(t *testing.T) {
	f, err := selection.NewExprFilter("dimuon", "n_muons >= 2 and met < 50")
	require.NoError(t, err)

	pass := rec(1).
		WithCollection("muons", event.Object{Pt: 30}, event.Object{Pt: 25}).
		WithMET(event.MET{Pt: 20})
	tag, err := f.Evaluate(pass)
	require.NoError(t, err)
	assert.Equal(t, "dimuon", tag)

	fail := rec(2).WithCollection("muons", event.Object{Pt: 30}).WithMET(event.MET{Pt: 20})
	tag, err = f.Evaluate(fail)
	require.NoError(t, err)
	assert.Empty(t, tag)
}

func TestNewExprFilter_UnknownVariableIsError(t *testing.T) {
	f, err := selection.NewExprFilter("ht", "ht > 200")
	require.NoError(t, err)

	_, err = f.Evaluate(rec(1))
	assert.Error(t, err)
}

func TestNewExprFilter_CompileError(t *testing.T) {
	_, err := selection.NewExprFilter("bad", "ht >")
	assert.Error(t, err)

	_, err = selection.NewExprFilter("", "ht > 1")
	assert.Error(t, err)
}

func TestNewTriggerFilter(t *testing.T) {
	f := selection.NewTriggerFilter("trig", "HLT_IsoMu24", "HLT_Ele32")

	tag, err := f.Evaluate(rec(1).WithTrigger("HLT_IsoMu24", false).WithTrigger("HLT_Ele32", true))
	require.NoError(t, err)
	assert.Equal(t, "HLT_Ele32", tag)

	tag, err = f.Evaluate(rec(2).WithTrigger("HLT_IsoMu24", true).WithTrigger("HLT_Ele32", true))
	require.NoError(t, err)
	assert.Equal(t, "HLT_IsoMu24", tag, "first fired trigger in declaration order")

	tag, err = f.Evaluate(rec(3))
	require.NoError(t, err)
	assert.Empty(t, tag)
}

func TestNewMinCountFilter(t *testing.T) {
	f := selection.NewMinCountFilter("2jets", "jets", 2, 30)

	tag, _ := f.Evaluate(rec(1).WithCollection("jets", event.Object{Pt: 45}, event.Object{Pt: 31}, event.Object{Pt: 12}))
	assert.Equal(t, "2jets", tag)

	tag, _ = f.Evaluate(rec(2).WithCollection("jets", event.Object{Pt: 45}, event.Object{Pt: 29}))
	assert.Empty(t, tag)
}

func TestFilter_DoesNotModifyView(t *testing.T) {
	v := rec(1).WithVar("ht", 300).WithTrigger("HLT", true)
	before := *v
	before.Vars = map[string]float64{"ht": 300}

	f, err := selection.NewExprFilter("ht", "ht > 200 and HLT")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		tag, err := f.Evaluate(v)
		require.NoError(t, err)
		assert.Equal(t, "ht", tag)
	}
	assert.Equal(t, before.Vars, v.Vars)
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "mu+2jets", selection.JoinTags([]string{"mu", "2jets"}))
	assert.Equal(t, "", selection.JoinTags(nil))
}

var errUnavailable = errors.New("collection unavailable")

func erroringFilter(name string) selection.Filter {
	return selection.NewFilter(name, func(event.View) (string, error) {
		return "", errUnavailable
	})
}
