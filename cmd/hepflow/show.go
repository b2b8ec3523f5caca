package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

var showCmd = &cobra.Command{
	Use:   "show <results.db> [entry...]",
	Short: "List or print the entries of a SQLite result file",
	Long: `Without entry names, list every histogram and cutflow in a SQLite result
file along with the stored job summaries. With names, print those entries.

Examples:
  hepflow show zpeak.db
  hepflow show zpeak.db mll cuts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openResults(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	if len(args) == 1 {
		return listEntries(cmd, db)
	}

	entries, err := db.Entries()
	if err != nil {
		return err
	}
	kinds := make(map[string]output.EntryKind, len(entries))
	for _, e := range entries {
		kinds[e.Name] = e.Kind
	}

	var errs []error
	for _, name := range args[1:] {
		switch kinds[name] {
		case output.KindHistogram:
			h, err := db.Histogram(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintln(w, renderHistogram(h))
		case output.KindCutflow:
			c, err := db.Cutflow(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintln(w, renderCutflow(c))
		default:
			errs = append(errs, fmt.Errorf("%s: %w", name, output.ErrNotFound))
		}
	}
	return errors.Join(errs...)
}

func listEntries(cmd *cobra.Command, db *output.SQLiteContainer) error {
	w := cmd.OutOrStdout()
	entries, err := db.Entries()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, heading("entries"))
	rows := [][]string{{"name", "kind", "entries", "sum"}}
	for _, e := range entries {
		row := []string{e.Name, string(e.Kind), "", ""}
		if e.Kind == output.KindHistogram {
			if h, err := db.Histogram(e.Name); err == nil {
				row[2] = fmt.Sprint(h.Entries)
				row[3] = fmt.Sprintf("%g", h.SumContent())
			}
		}
		rows = append(rows, row)
	}
	fmt.Fprint(w, table(rows))

	sums, err := db.Summaries()
	if err != nil {
		return err
	}
	for _, s := range sums {
		fmt.Fprintln(w)
		fmt.Fprint(w, renderSummary(s))
	}
	fmt.Fprintln(w)
	return nil
}

// openResults opens an existing result file. NewSQLiteContainer would
// create a missing one.
func openResults(path string) (*output.SQLiteContainer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	return output.NewSQLiteContainer(path)
}
