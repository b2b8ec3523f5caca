package event_test

import (
	"context"
	"strings"
	"testing"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src event.Source) []event.View {
	t.Helper()
	var out []event.View
	for {
		v, ok, err := src.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestSliceSource_OrderAndReset(t *testing.T) {
	a := event.NewRecord(event.ID{Run: 1, Event: 1})
	b := event.NewRecord(event.ID{Run: 1, Event: 2})
	src := event.NewSliceSource(a, b)

	views := drain(t, src)
	require.Len(t, views, 2)
	assert.Equal(t, uint64(1), views[0].ID().Event)
	assert.Equal(t, uint64(2), views[1].ID().Event)

	// Exhausted source keeps reporting the end without error.
	_, ok, err := src.Next(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	src.Reset()
	assert.Len(t, drain(t, src), 2)
}

func TestSliceSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := event.NewSliceSource(event.NewRecord(event.ID{})).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONLSource(t *testing.T) {
	input := `{"id":{"run":1,"lumi":2,"event":3},"vars":{"ht":250.5},"triggers":{"HLT_IsoMu24":true},"met":{"pt":41.0}}

{"id":{"run":1,"lumi":2,"event":4},"collections":{"muons":[{"pt":30,"eta":0.1,"charge":-1}]}}
`
	views := drain(t, event.NewJSONLSource(strings.NewReader(input)))
	require.Len(t, views, 2)

	first := views[0]
	assert.Equal(t, "1:2:3", first.ID().String())
	ht, ok := first.Var("ht")
	assert.True(t, ok)
	assert.InDelta(t, 250.5, ht, 1e-12)
	fired, known := first.Trigger("HLT_IsoMu24")
	assert.True(t, known)
	assert.True(t, fired)
	assert.InDelta(t, 41.0, first.MET().Pt, 1e-12)

	muons := views[1].Collection("muons")
	require.Len(t, muons, 1)
	assert.Equal(t, -1, muons[0].Charge)
}

func TestJSONLSource_DecodeError(t *testing.T) {
	src := event.NewJSONLSource(strings.NewReader("{not json}\n"))
	_, ok, err := src.Next(context.Background())
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestZip(t *testing.T) {
	truth := event.NewSliceSource(
		event.NewRecord(event.ID{Run: 1, Event: 10}),
		event.NewRecord(event.ID{Run: 1, Event: 11}),
	)
	reco := event.NewSliceSource(
		event.NewRecord(event.ID{Run: 1, Event: 10}),
		event.NewRecord(event.ID{Run: 1, Event: 99}),
	)

	views := drain(t, event.Zip(truth, reco))
	require.Len(t, views, 2)
	for i, v := range views {
		companion := event.TruthOf(v)
		require.NotNil(t, companion, "view %d has no truth companion", i)
	}
	assert.Equal(t, event.TruthOf(views[0]).ID(), views[0].ID())
	assert.NotEqual(t, event.TruthOf(views[1]).ID(), views[1].ID())
}

func TestZip_LengthMismatch(t *testing.T) {
	truth := event.NewSliceSource(event.NewRecord(event.ID{Event: 1}))
	reco := event.NewSliceSource()

	_, ok, err := event.Zip(truth, reco).Next(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, event.ErrLengthMismatch)
}

func TestTruthOf_PlainView(t *testing.T) {
	assert.Nil(t, event.TruthOf(event.NewRecord(event.ID{})))
}

func TestLookup(t *testing.T) {
	rec := event.NewRecord(event.ID{}).
		WithVar("ht", 300).
		WithMET(event.MET{Pt: 55, Phi: 1.5}).
		WithTrigger("HLT_Ele32", false).
		WithCollection("jets", event.Object{Pt: 40}, event.Object{Pt: 35})
	l := event.Lookup{View: rec}

	tests := []struct {
		name  string
		want  any
		found bool
	}{
		{"ht", 300.0, true},
		{"met", 55.0, true},
		{"met_phi", 1.5, true},
		{"n_jets", int64(2), true},
		{"n_muons", int64(0), true},
		{"HLT_Ele32", false, true},
		{"unknown", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := l.Lookup(tt.name)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}
