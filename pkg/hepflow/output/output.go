// Package output provides persistent containers for job results: histograms,
// cutflow tables and the job summary, each stored under a unique entry name.
package output

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"go-hep.org/x/hep/hbook"
)

// Container persists the named results of one job.
// Implementations must be safe for concurrent use.
type Container interface {
	// PutHistogram stores a histogram under h.Name.
	// Returns ErrDuplicateEntry if the name is already used.
	PutHistogram(h Histogram) error

	// PutCutflow stores a cutflow under c.Name.
	// Returns ErrDuplicateEntry if the name is already used.
	PutCutflow(c Cutflow) error

	// PutSummary stores the job summary. At most one summary per run ID.
	PutSummary(s Summary) error

	// Close releases any resources (connections, files).
	Close() error
}

// Reader lists and loads stored entries.
type Reader interface {
	Entries() ([]Entry, error)
	Histogram(name string) (Histogram, error)
	Cutflow(name string) (Cutflow, error)
	Summaries() ([]Summary, error)
}

// Reserver is implemented by write-only containers that keep some entry
// names for themselves.
type Reserver interface {
	Reserved() []string
}

// TakenNames returns the entry names c already holds or reserves, sorted.
// Readers report their stored entries. Containers that can tell neither
// return nil.
func TakenNames(c Container) ([]string, error) {
	var names []string
	if r, ok := c.(Reserver); ok {
		names = append(names, r.Reserved()...)
	}
	if r, ok := c.(Reader); ok {
		entries, err := r.Entries()
		if err != nil {
			return nil, fmt.Errorf("list output entries: %w", err)
		}
		for _, e := range entries {
			names = append(names, e.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Sentinel errors for container operations.
var (
	// ErrDuplicateEntry indicates an entry name is already in use.
	ErrDuplicateEntry = errors.New("duplicate output entry")

	// ErrNotFound indicates an entry doesn't exist.
	ErrNotFound = errors.New("output entry not found")

	// ErrContainerClosed indicates the container has been closed.
	ErrContainerClosed = errors.New("output container closed")
)

// EntryKind distinguishes stored entries.
type EntryKind string

const (
	KindHistogram EntryKind = "histogram"
	KindCutflow   EntryKind = "cutflow"
)

// Entry describes one stored entry.
type Entry struct {
	Name string
	Kind EntryKind
}

// Histogram is the persisted form of a binned accumulator.
//
// Content and SumW2 are in bin order. For 2-D histograms the x index varies
// fastest: bin (ix, iy) is at iy*len(XEdges-1)+ix.
type Histogram struct {
	Name   string    `json:"name"`
	Title  string    `json:"title,omitempty"`
	Dims   int       `json:"dims"`
	XEdges []float64 `json:"x_edges"`
	YEdges []float64 `json:"y_edges,omitempty"`

	Content []float64 `json:"content"`
	SumW2   []float64 `json:"sumw2"`

	// Underflow and Overflow are the summed weights outside the axis range
	// (any axis for 2-D).
	Underflow float64 `json:"underflow"`
	Overflow  float64 `json:"overflow"`
	Entries   int64   `json:"entries"`

	// Stats holds fill-attempt counters keyed by outcome.
	Stats map[string]int64 `json:"stats,omitempty"`

	// H1 and H2 are the live accumulators, when available. They are not
	// serialized by SQLite but are required by the ROOT container.
	H1 *hbook.H1D `json:"-"`
	H2 *hbook.H2D `json:"-"`
}

// Validate checks that the bin arrays are consistent with the edges.
func (h Histogram) Validate() error {
	if h.Name == "" {
		return fmt.Errorf("histogram name is required")
	}
	nx := len(h.XEdges) - 1
	if nx < 1 {
		return fmt.Errorf("histogram %s: need at least one x bin", h.Name)
	}
	n := nx
	switch h.Dims {
	case 1:
	case 2:
		ny := len(h.YEdges) - 1
		if ny < 1 {
			return fmt.Errorf("histogram %s: need at least one y bin", h.Name)
		}
		n = nx * ny
	default:
		return fmt.Errorf("histogram %s: unsupported dimension %d", h.Name, h.Dims)
	}
	if len(h.Content) != n || len(h.SumW2) != n {
		return fmt.Errorf("histogram %s: %d bins but %d contents and %d sumw2",
			h.Name, n, len(h.Content), len(h.SumW2))
	}
	return nil
}

// SumContent returns the sum of in-range bin contents.
func (h Histogram) SumContent() float64 {
	var sum float64
	for _, c := range h.Content {
		sum += c
	}
	return sum
}

// CutflowRow is one filter line of a cutflow.
type CutflowRow struct {
	Filter string `json:"filter"`
	// Passed counts events passing this filter on its own.
	Passed int64 `json:"passed"`
	// Cumulative counts events passing this filter and every earlier one.
	Cumulative int64 `json:"cumulative"`
	// Errors counts events on which the filter could not be evaluated.
	Errors int64 `json:"errors"`
}

// Cutflow is the per-filter pass-count report of a filter module.
type Cutflow struct {
	Name   string       `json:"name"`
	Events int64        `json:"events"`
	Rows   []CutflowRow `json:"rows"`
}

// Table renders the cutflow as a plain-text table.
func (c Cutflow) Table() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cutflow %s (%d events)\n", c.Name, c.Events)
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "filter\tpassed\tcumulative\tefficiency\terrors\t")
	for _, r := range c.Rows {
		eff := 0.0
		if c.Events > 0 {
			eff = float64(r.Cumulative) / float64(c.Events)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%d\t\n", r.Filter, r.Passed, r.Cumulative, eff, r.Errors)
	}
	_ = w.Flush()
	return b.String()
}

// ModuleStat is the per-module accounting of a job.
type ModuleStat struct {
	Module    string `json:"module"`
	Processed int64  `json:"processed"`
	Failed    int64  `json:"failed"`
	Skipped   int64  `json:"skipped"`
	// Error is the finalize or persist failure, if any.
	Error string `json:"error,omitempty"`
}

// Failure is one recorded per-event module failure.
type Failure struct {
	Module string `json:"module"`
	Event  string `json:"event"`
	Error  string `json:"error"`
}

// Summary is the skip-reason report written alongside every job's output.
type Summary struct {
	RunID          string       `json:"run_id"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	EventsRead     int64        `json:"events_read"`
	EventsComplete int64        `json:"events_complete"`
	EventsPartial  int64        `json:"events_partial"`
	Aborted        bool         `json:"aborted"`
	AbortReason    string       `json:"abort_reason,omitempty"`
	Modules        []ModuleStat `json:"modules"`
	// Failures holds the first recorded failures; FailuresDropped counts the rest.
	Failures        []Failure `json:"failures,omitempty"`
	FailuresDropped int64     `json:"failures_dropped,omitempty"`
}
