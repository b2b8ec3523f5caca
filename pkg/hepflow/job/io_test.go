package job_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/config"
	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/job"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONL(t *testing.T, path string, recs ...*event.Record) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, r := range recs {
		require.NoError(t, enc.Encode(r))
	}
}

func TestOpenSource_Events(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")
	writeJSONL(t, path, dimuon(1, true, []float64{30, 25}, 91, 1), dimuon(2, true, nil, 50, 1))

	src, closeFn, err := job.OpenSource(config.Input{Events: path})
	require.NoError(t, err)
	defer closeFn()

	ctx := context.Background()
	v, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), v.ID().Event)
	assert.Len(t, v.Collection("muons"), 2)
	assert.Nil(t, event.TruthOf(v))

	_, ok, err = src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenSource_TruthPairs(t *testing.T) {
	dir := t.TempDir()
	reco := filepath.Join(dir, "reco.jsonl")
	truth := filepath.Join(dir, "truth.jsonl")
	writeJSONL(t, reco, event.NewRecord(event.ID{Event: 7}).WithVar("pt", 46))
	writeJSONL(t, truth, event.NewRecord(event.ID{Event: 7}).WithVar("pt", 40))

	src, closeFn, err := job.OpenSource(config.Input{Events: reco, Truth: truth})
	require.NoError(t, err)

	v, ok, err := src.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	pt, _ := v.Var("pt")
	assert.Equal(t, 46.0, pt)

	tv := event.TruthOf(v)
	require.NotNil(t, tv)
	pt, _ = tv.Var("pt")
	assert.Equal(t, 40.0, pt)

	assert.NoError(t, closeFn())
}

func TestOpenSource_Missing(t *testing.T) {
	dir := t.TempDir()
	_, _, err := job.OpenSource(config.Input{Events: filepath.Join(dir, "nope.jsonl")})
	assert.ErrorContains(t, err, "open events")

	events := filepath.Join(dir, "events.jsonl")
	writeJSONL(t, events)
	_, _, err = job.OpenSource(config.Input{Events: events, Truth: filepath.Join(dir, "nope.jsonl")})
	assert.ErrorContains(t, err, "open truth")
}

func TestOpenOutput(t *testing.T) {
	dir := t.TempDir()

	c, err := job.OpenOutput(config.Output{Path: filepath.Join(dir, "out.db")})
	require.NoError(t, err)
	assert.IsType(t, &output.SQLiteContainer{}, c)
	require.NoError(t, c.Close())

	c, err = job.OpenOutput(config.Output{Path: filepath.Join(dir, "out.root")})
	require.NoError(t, err)
	assert.IsType(t, &output.ROOTContainer{}, c)
	require.NoError(t, c.Close())

	_, err = job.OpenOutput(config.Output{Path: "out.csv", Format: "csv"})
	assert.ErrorContains(t, err, `unsupported output format "csv"`)
}

func TestRunOptions_MaxEvents(t *testing.T) {
	j := zpeakJob()
	j.Run.MaxEvents = 2
	g, err := job.Build(j, nil)
	require.NoError(t, err)
	rg, err := g.Resolve()
	require.NoError(t, err)

	report, err := rg.Run(context.Background(), zpeakEvents(), job.RunOptions(j)...)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.EventsRead)
	assert.Len(t, job.RunOptions(config.Job{}), 1)
}

func TestJobEndToEnd_SQLite(t *testing.T) {
	dir := t.TempDir()
	j := zpeakJob()
	j.Input.Events = filepath.Join(dir, "events.jsonl")
	j.Output.Path = filepath.Join(dir, "zpeak.db")
	writeJSONL(t, j.Input.Events,
		dimuon(1, true, []float64{30, 25}, 91, 1),
		dimuon(2, true, []float64{30}, 50, 1),
		dimuon(3, false, []float64{30, 25}, 91, 1),
		dimuon(4, true, []float64{40, 22}, 150, 0.5),
	)

	g, err := job.Build(j, nil)
	require.NoError(t, err)
	rg, err := g.Resolve()
	require.NoError(t, err)

	src, closeSrc, err := job.OpenSource(j.Input)
	require.NoError(t, err)
	defer closeSrc()
	out, err := job.OpenOutput(j.Output)
	require.NoError(t, err)

	opts := append(job.RunOptions(j), hepflow.WithOutput(out))
	report, err := rg.Run(context.Background(), src, opts...)
	require.NoError(t, err)
	assert.Equal(t, int64(4), report.EventsRead)
	require.NoError(t, out.Close())

	db, err := output.NewSQLiteContainer(j.Output.Path)
	require.NoError(t, err)
	defer db.Close()

	entries, err := db.Entries()
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.ElementsMatch(t, []string{"sel", "mll", "mll_tight"}, names)

	mll, err := db.Histogram("mll")
	require.NoError(t, err)
	assert.Equal(t, 2.0, mll.Content[3])

	sums, err := db.Summaries()
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, report.RunID, sums[0].RunID)
	assert.Equal(t, int64(4), sums[0].EventsRead)
}

func TestJobRerunIntoSameSQLiteFile(t *testing.T) {
	dir := t.TempDir()
	j := zpeakJob()
	j.Input.Events = filepath.Join(dir, "events.jsonl")
	j.Output.Path = filepath.Join(dir, "zpeak.db")
	writeJSONL(t, j.Input.Events,
		dimuon(1, true, []float64{30, 25}, 91, 1),
		dimuon(2, true, []float64{40, 22}, 89, 1),
	)

	run := func() (*hepflow.Report, event.Source, error) {
		g, err := job.Build(j, nil)
		require.NoError(t, err)
		rg, err := g.Resolve()
		require.NoError(t, err)
		src, closeSrc, err := job.OpenSource(j.Input)
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeSrc() })
		out, err := job.OpenOutput(j.Output)
		require.NoError(t, err)
		defer out.Close()
		report, err := rg.Run(context.Background(), src, append(job.RunOptions(j), hepflow.WithOutput(out))...)
		return report, src, err
	}

	_, _, err := run()
	require.NoError(t, err)

	report, src, err := run()
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, hepflow.ErrConfiguration)
	assert.ErrorContains(t, err, `output entry "mll" already exists`)

	v, ok, err := src.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), v.ID().Event, "no event was read before the error")

	db, err := output.NewSQLiteContainer(j.Output.Path)
	require.NoError(t, err)
	defer db.Close()
	sums, err := db.Summaries()
	require.NoError(t, err)
	assert.Len(t, sums, 1, "first run's results are intact")
}
