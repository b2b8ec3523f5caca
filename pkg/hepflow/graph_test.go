package hepflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	g := NewGraph()
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Len())
}

func TestGraph_AddModule(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddModule(newCounter("a")))
	require.NoError(t, g.AddModule(newCounter("b", "a")))

	assert.Equal(t, 2, g.Len())
	m, ok := g.Module("b")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, m.Dependencies())

	_, ok = g.Module("missing")
	assert.False(t, ok)
}

func TestGraph_AddModule_Duplicate(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddModule(newCounter("jets")))

	err := g.AddModule(newCounter("jets"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "module", dup.Kind)
	assert.Equal(t, "jets", dup.Name)
	assert.Equal(t, 1, g.Len(), "first registration must stand")
}

func TestGraph_AddModule_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		m    Module
	}{
		{"nil module", nil},
		{"empty name", newCounter("")},
		{"space", newCounter("z peak")},
		{"tab", newCounter("z\tpeak")},
		{"newline", newCounter("zpeak\n")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewGraph().AddModule(tc.m)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestGraph_MustAddModule_Panics(t *testing.T) {
	g := NewGraph().MustAddModule(newCounter("a"))
	assert.PanicsWithValue(t, `hepflow: duplicate module name "a"`, func() {
		g.MustAddModule(newCounter("a"))
	})
}

func TestFuncModule(t *testing.T) {
	var finalized bool
	m := NewFuncModule("f", []string{"a"}, nil, func(Context) error {
		finalized = true
		return nil
	})

	out, err := m.Process(testCtx(), events(1)[0], Outputs{})
	require.NoError(t, err)
	assert.Nil(t, out)

	require.NoError(t, m.Finalize(testCtx()))
	assert.True(t, finalized)
	assert.Equal(t, []string{"a"}, m.Dependencies())
}

func TestOutputs(t *testing.T) {
	up := NewOutputs(map[string]any{
		"trigger": tagged{tag: "HLT_IsoMu24", weight: 0.98},
		"veto":    tagged{tag: ""},
		"count":   3,
	})

	v, ok := up.Get("count")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.True(t, up.Has("veto"))
	assert.False(t, up.Has("missing"))

	tag, ok := up.Tag("trigger")
	assert.True(t, ok)
	assert.Equal(t, "HLT_IsoMu24", tag)

	_, ok = up.Tag("count")
	assert.False(t, ok, "plain values carry no tag")

	assert.True(t, up.Passed("trigger"))
	assert.False(t, up.Passed("trigger", "veto"))
	assert.False(t, up.Passed("missing"))
	assert.True(t, up.Passed(), "no requirements always pass")

	w, ok := up.Weight("trigger")
	assert.True(t, ok)
	assert.Equal(t, 0.98, w)

	assert.Equal(t, []string{"count", "trigger", "veto"}, up.Names())
	assert.Equal(t, 3, up.Len())

	var empty Outputs
	_, ok = empty.Get("x")
	assert.False(t, ok)
}
