package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// Plot flags
var (
	plotDir    string
	plotFormat string
)

var plotCmd = &cobra.Command{
	Use:   "plot <results.db> [histogram...]",
	Short: "Render 1-D histograms from a SQLite result file",
	Long: `Render stored 1-D histograms as images, one file per histogram. Without
names, every 1-D histogram in the file is rendered.

Examples:
  hepflow plot zpeak.db
  hepflow plot zpeak.db mll --dir plots --format svg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlot,
}

func init() {
	plotCmd.Flags().StringVarP(&plotDir, "dir", "d", ".", "Directory for the images")
	plotCmd.Flags().StringVarP(&plotFormat, "format", "f", "png", "Image format (png, svg, pdf)")
}

func runPlot(cmd *cobra.Command, args []string) error {
	db, err := openResults(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	names := args[1:]
	if len(names) == 0 {
		entries, err := db.Entries()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Kind == output.KindHistogram {
				names = append(names, e.Name)
			}
		}
	}
	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		return fmt.Errorf("create plot directory: %w", err)
	}

	w := cmd.OutOrStdout()
	var errs []error
	for _, name := range names {
		h, err := db.Histogram(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if h.Dims != 1 && len(args) == 1 {
			fmt.Fprintln(w, mutedStyle.Render("  skip "+name+" (2-D)"))
			continue
		}
		path := filepath.Join(plotDir, name+"."+plotFormat)
		if err := output.SavePlot(h, path); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintln(w, successStyle.Render("  ✓ ")+path)
	}
	return errors.Join(errs...)
}
