package output_test

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// container is what both readable backends provide.
type container interface {
	output.Container
	output.Reader
}

// containerFactory creates a container instance for testing.
type containerFactory func(t *testing.T) container

func sampleHistogram(name string) output.Histogram {
	return output.Histogram{
		Name:      name,
		Title:     "dilepton mass",
		Dims:      1,
		XEdges:    []float64{0, 1, 2, 3},
		Content:   []float64{1, 2.5, 0},
		SumW2:     []float64{1, 3.25, 0},
		Underflow: 0.5,
		Overflow:  1,
		Entries:   5,
		Stats:     map[string]int64{"filled": 5, "filter": 2},
	}
}

func sampleCutflow(name string) output.Cutflow {
	return output.Cutflow{
		Name:   name,
		Events: 10,
		Rows: []output.CutflowRow{
			{Filter: "trigger", Passed: 8, Cumulative: 8},
			{Filter: "ht", Passed: 6, Cumulative: 5, Errors: 1},
		},
	}
}

// containerContractTest runs contract tests against any readable Container.
func containerContractTest(t *testing.T, name string, factory containerFactory) {
	t.Run(name+"/Histogram_RoundTrip", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		want := sampleHistogram("mll")
		require.NoError(t, c.PutHistogram(want))

		got, err := c.Histogram("mll")
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.XEdges, got.XEdges)
		assert.Equal(t, want.Content, got.Content)
		assert.Equal(t, want.SumW2, got.SumW2)
		assert.Equal(t, want.Underflow, got.Underflow)
		assert.Equal(t, want.Overflow, got.Overflow)
		assert.Equal(t, want.Entries, got.Entries)
		assert.Equal(t, want.Stats, got.Stats)
	})

	t.Run(name+"/Cutflow_RoundTrip", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		want := sampleCutflow("cuts")
		require.NoError(t, c.PutCutflow(want))

		got, err := c.Cutflow("cuts")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run(name+"/NotFound", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		_, err := c.Histogram("missing")
		assert.ErrorIs(t, err, output.ErrNotFound)
		_, err = c.Cutflow("missing")
		assert.ErrorIs(t, err, output.ErrNotFound)
	})

	t.Run(name+"/DuplicateName", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		require.NoError(t, c.PutHistogram(sampleHistogram("mll")))
		assert.ErrorIs(t, c.PutHistogram(sampleHistogram("mll")), output.ErrDuplicateEntry)

		// Names are shared between kinds.
		assert.ErrorIs(t, c.PutCutflow(sampleCutflow("mll")), output.ErrDuplicateEntry)

		// The first entry is untouched.
		got, err := c.Histogram("mll")
		require.NoError(t, err)
		assert.Equal(t, 2.5, got.Content[1])
	})

	t.Run(name+"/InvalidHistogram", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		bad := sampleHistogram("bad")
		bad.Content = bad.Content[:1]
		assert.Error(t, c.PutHistogram(bad))

		_, err := c.Histogram("bad")
		assert.ErrorIs(t, err, output.ErrNotFound)
	})

	t.Run(name+"/Entries_SortedByName", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		require.NoError(t, c.PutHistogram(sampleHistogram("pt")))
		require.NoError(t, c.PutCutflow(sampleCutflow("cuts")))
		require.NoError(t, c.PutHistogram(sampleHistogram("eta")))

		entries, err := c.Entries()
		require.NoError(t, err)
		assert.Equal(t, []output.Entry{
			{Name: "cuts", Kind: output.KindCutflow},
			{Name: "eta", Kind: output.KindHistogram},
			{Name: "pt", Kind: output.KindHistogram},
		}, entries)
	})

	t.Run(name+"/Summaries", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		first := output.Summary{
			RunID:          "run-1",
			StartedAt:      start,
			FinishedAt:     start.Add(time.Minute),
			EventsRead:     10,
			EventsComplete: 9,
			EventsPartial:  1,
			Modules:        []output.ModuleStat{{Module: "cuts", Processed: 10}, {Module: "histos", Processed: 9, Skipped: 1}},
			Failures:       []output.Failure{{Module: "cuts", Event: "1:0:4", Error: "boom"}},
		}
		second := output.Summary{RunID: "run-2", StartedAt: start, FinishedAt: start.Add(2 * time.Minute)}

		require.NoError(t, c.PutSummary(first))
		require.NoError(t, c.PutSummary(second))
		assert.ErrorIs(t, c.PutSummary(first), output.ErrDuplicateEntry)

		got, err := c.Summaries()
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "run-1", got[0].RunID)
		assert.Equal(t, first.Modules, got[0].Modules)
		assert.Equal(t, first.Failures, got[0].Failures)
		assert.True(t, first.FinishedAt.Equal(got[0].FinishedAt))
		assert.Equal(t, "run-2", got[1].RunID)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		c := factory(t)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close(), "close is idempotent")

		assert.ErrorIs(t, c.PutHistogram(sampleHistogram("h")), output.ErrContainerClosed)
		assert.ErrorIs(t, c.PutCutflow(sampleCutflow("c")), output.ErrContainerClosed)
		assert.ErrorIs(t, c.PutSummary(output.Summary{RunID: "r"}), output.ErrContainerClosed)
		_, err := c.Entries()
		assert.ErrorIs(t, err, output.ErrContainerClosed)
	})

	t.Run(name+"/ConcurrentPut", func(t *testing.T) {
		c := factory(t)
		defer c.Close()

		var wg sync.WaitGroup
		errs := make([]error, 20)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = c.PutCutflow(sampleCutflow("shared"))
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, output.ErrDuplicateEntry)
			}
		}
		assert.Equal(t, 1, ok, "exactly one writer claims the name")
	})
}

func TestContainerContract(t *testing.T) {
	containerContractTest(t, "Memory", func(t *testing.T) container {
		return output.NewMemoryContainer()
	})

	containerContractTest(t, "SQLite", func(t *testing.T) container {
		c, err := output.NewSQLiteContainer(":memory:")
		require.NoError(t, err)
		return c
	})
}

func TestSQLiteContainer_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	c1, err := output.NewSQLiteContainer(path)
	require.NoError(t, err)
	require.NoError(t, c1.PutHistogram(sampleHistogram("mll")))
	require.NoError(t, c1.Close())

	c2, err := output.NewSQLiteContainer(path)
	require.NoError(t, err)
	defer c2.Close()

	h, err := c2.Histogram("mll")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 0}, h.Content)

	// The name stays claimed across reopen.
	assert.ErrorIs(t, c2.PutCutflow(sampleCutflow("mll")), output.ErrDuplicateEntry)
}

func TestSQLiteContainer_InvalidPath(t *testing.T) {
	_, err := output.NewSQLiteContainer("/nonexistent/path/results.db")
	assert.Error(t, err)
}

func TestMemoryContainer_ReturnsCopies(t *testing.T) {
	c := output.NewMemoryContainer()
	h := sampleHistogram("mll")
	require.NoError(t, c.PutHistogram(h))
	h.Content[0] = 99

	got, err := c.Histogram("mll")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Content[0])

	got.Content[1] = 42
	again, _ := c.Histogram("mll")
	assert.Equal(t, 2.5, again.Content[1])
	assert.Equal(t, 1, c.Len())
}

func TestHistogram_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*output.Histogram)
		errMsg string
	}{
		{"no name", func(h *output.Histogram) { h.Name = "" }, "name is required"},
		{"no bins", func(h *output.Histogram) { h.XEdges = []float64{0} }, "at least one x bin"},
		{"bad dims", func(h *output.Histogram) { h.Dims = 3 }, "unsupported dimension"},
		{"short sumw2", func(h *output.Histogram) { h.SumW2 = nil }, "sumw2"},
		{"2d without y", func(h *output.Histogram) { h.Dims = 2 }, "at least one y bin"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := sampleHistogram("h")
			tc.mutate(&h)
			err := h.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	h2 := output.Histogram{
		Name: "xy", Dims: 2,
		XEdges: []float64{0, 1, 2}, YEdges: []float64{0, 1},
		Content: []float64{1, 2}, SumW2: []float64{1, 4},
	}
	assert.NoError(t, h2.Validate())
	assert.Equal(t, 3.0, h2.SumContent())
}

func TestCutflow_Table(t *testing.T) {
	table := sampleCutflow("cuts").Table()

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "cutflow cuts (10 events)", lines[0])
	assert.Contains(t, lines[1], "filter")
	assert.Contains(t, lines[1], "efficiency")
	assert.Contains(t, lines[2], "trigger")
	assert.Contains(t, lines[2], "0.8000")
	assert.Contains(t, lines[3], "0.5000")

	empty := output.Cutflow{Name: "none", Rows: []output.CutflowRow{{Filter: "x"}}}.Table()
	assert.Contains(t, empty, "0.0000")
}
