package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// Colors
var (
	accent  = lipgloss.Color("#5F87FF")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	failure = lipgloss.Color("#FF5F5F")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(failure).Bold(true)
	cellStyle    = lipgloss.NewStyle().PaddingRight(2)
)

func heading(s string) string {
	return accentStyle.Render("▸ " + strings.ToUpper(s))
}

func field(label string, value any) string {
	return fmt.Sprintf("  %s %s", mutedStyle.Render(label+":"), titleStyle.Render(fmt.Sprint(value)))
}

// table renders rows as aligned columns. The first row is the header.
// Columns after the first are right-aligned.
func table(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			st := cellStyle.Width(widths[i] + 2)
			if i > 0 {
				st = st.Align(lipgloss.Right)
			}
			if r == 0 {
				st = st.Foreground(muted)
			}
			cells[i] = st.Render(cell)
		}
		b.WriteString("  " + lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
	}
	return b.String()
}

func renderCutflow(c output.Cutflow) string {
	rows := [][]string{{"filter", "passed", "cumulative", "efficiency", "errors"}}
	for _, r := range c.Rows {
		eff := 0.0
		if c.Events > 0 {
			eff = float64(r.Cumulative) / float64(c.Events)
		}
		errs := fmt.Sprint(r.Errors)
		if r.Errors > 0 {
			errs = errorStyle.Render(errs)
		}
		rows = append(rows, []string{
			r.Filter,
			fmt.Sprint(r.Passed),
			fmt.Sprint(r.Cumulative),
			fmt.Sprintf("%.4f", eff),
			errs,
		})
	}
	return fmt.Sprintf("%s %s\n%s",
		heading("cutflow "+c.Name), mutedStyle.Render(fmt.Sprintf("(%d events)", c.Events)), table(rows))
}

func renderSummary(s output.Summary) string {
	var b strings.Builder
	if s.Aborted {
		b.WriteString(errorStyle.Render("  ✗ JOB ABORTED") + " " + mutedStyle.Render(s.AbortReason) + "\n")
	} else {
		b.WriteString(successStyle.Render("  ✓ JOB COMPLETE") + "\n")
	}
	b.WriteString("\n")
	b.WriteString(field("Run", s.RunID) + "\n")
	b.WriteString(field("Events", s.EventsRead) + "\n")
	b.WriteString(field("Complete", s.EventsComplete) + "\n")
	if s.EventsPartial > 0 {
		b.WriteString(fmt.Sprintf("  %s %s\n", mutedStyle.Render("Partial:"), errorStyle.Render(fmt.Sprint(s.EventsPartial))))
	}
	if !s.FinishedAt.IsZero() {
		b.WriteString(field("Time", formatDuration(s.FinishedAt.Sub(s.StartedAt))) + "\n")
	}
	b.WriteString("\n")

	rows := [][]string{{"module", "processed", "failed", "skipped", "error"}}
	for _, m := range s.Modules {
		rows = append(rows, []string{
			m.Module, fmt.Sprint(m.Processed), fmt.Sprint(m.Failed), fmt.Sprint(m.Skipped), m.Error,
		})
	}
	b.WriteString(table(rows))

	if len(s.Failures) > 0 {
		b.WriteString("\n" + heading("failures") + "\n")
		for _, f := range s.Failures {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				mutedStyle.Render(f.Event), titleStyle.Render(f.Module), errorStyle.Render(f.Error)))
		}
		if s.FailuresDropped > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more\n", s.FailuresDropped)))
		}
	}
	return b.String()
}

func renderHistogram(h output.Histogram) string {
	var b strings.Builder
	title := h.Title
	if title == "" {
		title = h.Name
	}
	b.WriteString(heading("histogram "+h.Name) + " " + mutedStyle.Render(title) + "\n")
	b.WriteString(field("Dims", h.Dims) + "\n")
	b.WriteString(field("Entries", h.Entries) + "\n")
	b.WriteString(field("Sum", fmt.Sprintf("%g", h.SumContent())) + "\n")
	b.WriteString(field("Underflow", fmt.Sprintf("%g", h.Underflow)) + "\n")
	b.WriteString(field("Overflow", fmt.Sprintf("%g", h.Overflow)) + "\n")

	if len(h.Stats) > 0 {
		keys := []string{"attempts", "filled", "matched", "filter", "filter_error", "weight", "extract", "unmatched"}
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if n, ok := h.Stats[k]; ok {
				parts = append(parts, fmt.Sprintf("%s=%d", k, n))
			}
		}
		b.WriteString(field("Stats", strings.Join(parts, " ")) + "\n")
	}

	if h.Dims == 1 {
		b.WriteString("\n")
		rows := [][]string{{"bin", "low", "high", "content", "error"}}
		for i, c := range h.Content {
			rows = append(rows, []string{
				fmt.Sprint(i),
				fmt.Sprintf("%g", h.XEdges[i]),
				fmt.Sprintf("%g", h.XEdges[i+1]),
				fmt.Sprintf("%g", c),
				fmt.Sprintf("%.3g", math.Sqrt(h.SumW2[i])),
			})
		}
		b.WriteString(table(rows))
	}
	return b.String()
}

// newProgress creates the event-loop progress bar on stderr. total is -1
// when the number of events is unknown.
func newProgress(total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("  events"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("evt"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
