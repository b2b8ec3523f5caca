package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/config"
	"github.com/randalmurphal/hepflow/pkg/hepflow/hist"
	"github.com/randalmurphal/hepflow/pkg/hepflow/job"
	"github.com/randalmurphal/hepflow/pkg/hepflow/selection"
)

var validateCmd = &cobra.Command{
	Use:   "validate <job-file>",
	Short: "Check a job file and print the module execution order",
	Long: `Load a job file, build its module graph and resolve the execution order
without reading any events. Every configuration problem is reported.

Examples:
  hepflow validate zpeak.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	j, rg, err := loadGraph(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render("  ✓ VALID")+" "+mutedStyle.Render(args[0]))
	fmt.Fprintln(w)
	fmt.Fprintln(w, field("Job", j.Name))
	fmt.Fprintln(w, field("Events", j.Input.Events))
	if j.Input.Truth != "" {
		fmt.Fprintln(w, field("Truth", j.Input.Truth))
	}
	fmt.Fprintln(w, field("Output", fmt.Sprintf("%s (%s)", j.Output.Path, j.Output.ResolvedFormat())))
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("execution order"))

	rows := [][]string{{"#", "module", "type", "depth", "depends on", "outputs"}}
	for i, name := range rg.Order() {
		m, _ := rg.Module(name)
		var outputs []string
		if n, ok := m.(hepflow.OutputNamer); ok {
			outputs = n.OutputNames()
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			name,
			describe(m),
			fmt.Sprint(rg.Depth(name)),
			strings.Join(rg.Dependencies(name), ", "),
			strings.Join(outputs, ", "),
		})
	}
	fmt.Fprint(w, table(rows))
	return nil
}

// loadGraph loads, builds and resolves a job file.
func loadGraph(path string) (config.Job, *hepflow.ResolvedGraph, error) {
	j, err := config.LoadJobWithVars(path, jobVars)
	if err != nil {
		return config.Job{}, nil, err
	}
	g, err := job.Build(j, nil)
	if err != nil {
		return config.Job{}, nil, err
	}
	rg, err := g.Resolve()
	if err != nil {
		return config.Job{}, nil, err
	}
	return j, rg, nil
}

func describe(m hepflow.Module) string {
	switch m := m.(type) {
	case *selection.FilterModule:
		return fmt.Sprintf("filter (%d)", len(m.Filters()))
	case *selection.WeightModule:
		return "weight"
	case *hist.Module:
		return fmt.Sprintf("histograms (%d)", len(m.Specs()))
	default:
		return fmt.Sprintf("%T", m)
	}
}
