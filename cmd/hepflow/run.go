package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/hist"
	"github.com/randalmurphal/hepflow/pkg/hepflow/job"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
)

// Run flags
var (
	runOutput     string
	runPlots      string
	runMaxEvents  int64
	runNoProgress bool
	runMetrics    bool
	runTracing    bool
	runForce      bool
)

var runCmd = &cobra.Command{
	Use:   "run <job-file>",
	Short: "Run a job over its event files",
	Long: `Run a job: read every event, pass it through the module graph, then write
histograms, cutflows and the job summary to the output file.

Interrupting the job (Ctrl-C) stops the event loop; whatever was accumulated
is still finalized and written.

A SQLite output that already holds entries with the job's names is refused
before any event is read. Use --force to replace the file.

Examples:
  hepflow run zpeak.yaml
  hepflow run zpeak.yaml --max-events 10000 -o test.db
  hepflow run zpeak.yaml --plots plots/ --metrics
  hepflow run zpeak.yaml --force`,
	Args: cobra.ExactArgs(1),
	RunE: runJob,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Override the output file (.db or .root)")
	runCmd.Flags().StringVar(&runPlots, "plots", "", "Override the directory for PNG plots of 1-D histograms")
	runCmd.Flags().Int64VarP(&runMaxEvents, "max-events", "n", 0, "Stop after this many events (0 = all)")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "Disable the progress bar")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "Collect OpenTelemetry metrics and print them after the run")
	runCmd.Flags().BoolVar(&runTracing, "trace", false, "Collect OpenTelemetry spans and print their timings after the run")
	runCmd.Flags().BoolVar(&runForce, "force", false, "Replace an existing output file")
}

func runJob(cmd *cobra.Command, args []string) error {
	j, rg, err := loadGraph(args[0])
	if err != nil {
		return err
	}
	if runOutput != "" {
		j.Output.Path = runOutput
		j.Output.Format = ""
	}
	if runPlots != "" {
		j.Output.Plots = runPlots
	}
	if cmd.Flags().Changed("max-events") {
		j.Run.MaxEvents = runMaxEvents
	}

	src, closeSrc, err := job.OpenSource(j.Input)
	if err != nil {
		return err
	}
	defer closeSrc()

	if runForce {
		if err := removeOutput(j.Output.Path); err != nil {
			return err
		}
	}
	out, err := job.OpenOutput(j.Output)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel := setupTelemetry(runMetrics, runTracing)
	defer func() {
		if err := tel.shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	opts := append(job.RunOptions(j),
		hepflow.WithOutput(out),
		hepflow.WithLogger(slog.Default()),
		hepflow.WithMetrics(runMetrics),
		hepflow.WithTracing(runTracing),
	)
	var bar *progressbar.ProgressBar
	if !runNoProgress {
		total := int64(-1)
		if j.Run.MaxEvents > 0 {
			total = j.Run.MaxEvents
		}
		bar = newProgress(total)
		opts = append(opts, hepflow.WithProgress(func(n int64) {
			_ = bar.Set64(n)
		}))
	}

	report, runErr := rg.Run(ctx, src, opts...)
	if bar != nil {
		_ = bar.Finish()
	}
	closeErr := out.Close()
	if report == nil {
		// Rejected before the first event.
		return errors.Join(runErr, closeErr)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	printCutflows(w, rg)
	fmt.Fprint(w, renderSummary(report.Summary()))
	if closeErr == nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, field("Output", j.Output.Path))
	}

	var plotErr error
	if j.Output.Plots != "" {
		var n int
		n, plotErr = savePlots(rg, j.Output.Plots)
		fmt.Fprintln(w, field("Plots", fmt.Sprintf("%d in %s", n, j.Output.Plots)))
	}

	if runMetrics || runTracing {
		text, err := tel.render(context.Background())
		if err != nil {
			slog.Warn("telemetry unavailable", slog.String("error", err.Error()))
		} else {
			fmt.Fprintln(w)
			fmt.Fprint(w, text)
		}
	}
	fmt.Fprintln(w)

	return errors.Join(runErr, closeErr, plotErr)
}

func printCutflows(w io.Writer, rg *hepflow.ResolvedGraph) {
	for _, name := range rg.Order() {
		m, _ := rg.Module(name)
		if fm, ok := m.(*selection.FilterModule); ok {
			fmt.Fprintln(w, renderCutflow(fm.Cutflow()))
		}
	}
}

// savePlots renders every 1-D histogram of the graph as dir/NAME.png.
func savePlots(rg *hepflow.ResolvedGraph, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create plot directory: %w", err)
	}
	var (
		n    int
		errs []error
	)
	for _, name := range rg.Order() {
		m, _ := rg.Module(name)
		hm, ok := m.(*hist.Module)
		if !ok {
			continue
		}
		for _, spec := range hm.Specs() {
			if spec.Dims() != 1 {
				continue
			}
			if err := output.SavePlot(spec.Histogram(), filepath.Join(dir, spec.Name()+".png")); err != nil {
				errs = append(errs, err)
				continue
			}
			n++
		}
	}
	return n, errors.Join(errs...)
}

// removeOutput deletes a result file along with SQLite's WAL companions.
func removeOutput(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove output: %w", err)
		}
	}
	return nil
}
