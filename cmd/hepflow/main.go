// hepflow runs histogramming jobs over collision events.
//
// A job file declares the event inputs, named filters and scale factors, and
// a graph of filter, weight and histogram modules. See package config for
// the format.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// Global flags
var (
	verbose bool
	logJSON bool
	jobVars map[string]string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hepflow",
	Short: "hepflow - event selection and histogramming jobs",
	Long: `hepflow runs a graph of analysis modules over collision events: filter
modules that record cutflows, weight modules that combine scale factors, and
histogram modules that fill 1-D and 2-D histograms (including truth vs reco
comparisons). Results go to a SQLite or ROOT file.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging (per-event skips and failures)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON instead of text")
	rootCmd.PersistentFlags().StringToStringVar(&jobVars, "set", nil, "Set a job file variable, NAME=VALUE (repeatable)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(plotCmd)
}

// newLogger logs to stderr so stdout stays clean for reports.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
