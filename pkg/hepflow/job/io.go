package job

import (
	"errors"
	"fmt"
	"os"

	"github.com/randalmurphal/hepflow/pkg/hepflow"
	"github.com/randalmurphal/hepflow/pkg/hepflow/config"
	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/randalmurphal/hepflow/pkg/hepflow/output"
)

// OpenSource opens the event files named by in. With a truth file the two
// files are zipped so every reco view carries its truth companion.
// The returned function closes the files.
func OpenSource(in config.Input) (event.Source, func() error, error) {
	reco, err := os.Open(in.Events)
	if err != nil {
		return nil, nil, fmt.Errorf("open events: %w", err)
	}
	if in.Truth == "" {
		return event.NewJSONLSource(reco), reco.Close, nil
	}

	truth, err := os.Open(in.Truth)
	if err != nil {
		_ = reco.Close()
		return nil, nil, fmt.Errorf("open truth: %w", err)
	}
	closeAll := func() error {
		return errors.Join(truth.Close(), reco.Close())
	}
	src := event.Zip(event.NewJSONLSource(truth), event.NewJSONLSource(reco))
	return src, closeAll, nil
}

// OpenOutput creates the result container selected by out.
func OpenOutput(out config.Output) (output.Container, error) {
	var (
		c   output.Container
		err error
	)
	switch f := out.ResolvedFormat(); f {
	case config.FormatSQLite:
		c, err = output.NewSQLiteContainer(out.Path)
	case config.FormatROOT:
		c, err = output.NewROOTContainer(out.Path)
	default:
		return nil, fmt.Errorf("unsupported output format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// RunOptions translates the job's run settings. Zero settings keep the
// driver defaults.
func RunOptions(j config.Job) []hepflow.RunOption {
	opts := []hepflow.RunOption{hepflow.WithJobName(j.Name)}
	if j.Run.MaxEvents > 0 {
		opts = append(opts, hepflow.WithMaxEvents(j.Run.MaxEvents))
	}
	if j.Run.MaxFailures > 0 {
		opts = append(opts, hepflow.WithMaxFailures(j.Run.MaxFailures))
	}
	return opts
}
