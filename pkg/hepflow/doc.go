/*
Package hepflow drives physics analysis modules over a sequence of events.

# Overview

A job is a set of modules with declared dependencies. The graph is resolved
once into a deterministic topological order and then driven one event at a
time: every module's Process hook is called in order, each seeing the
outputs of the modules ordered before it for the same event. When the event
source is exhausted every module is finalized and its accumulated results
are written to an output container together with a job summary.

Selection (Filters and ScaleFactors), histogram filling and the concrete
outputs live in sub-packages:

  - event: read-only event views and event sources
  - selection: Filter, ScaleFactor, their composition and FilterModule
  - hist: binned histograms, paired truth/reco filling and the histogram module
  - output: memory, SQLite and ROOT result containers
  - config, job: YAML/JSON job descriptions and their assembly into a Graph

# Basic Usage

	g := hepflow.NewGraph()
	if err := g.AddModule(cuts); err != nil { ... }
	if err := g.AddModule(histos); err != nil { ... }

	resolved, err := g.Resolve()
	if err != nil {
	    log.Fatal(err) // configuration error, nothing has run
	}

	out, _ := output.NewSQLiteContainer("results.db")
	defer out.Close()

	report, err := resolved.Run(ctx, source, hepflow.WithOutput(out))

# Ordering

Resolve uses a stable topological sort: among modules whose dependencies are
all satisfied, the one registered first runs first. The order is therefore
reproducible across runs and independent of map iteration.

# Failure Handling

Configuration problems (duplicate names, missing dependencies, cycles,
colliding output entry names) are reported by AddModule and Resolve, before
any event is read. All of them match ErrConfiguration.

A Process error or panic affects one module on one event: it is logged with
the module name and event identifier, recorded as a ModuleProcessError, and
every module ordered after the failing one is skipped for that event.
Counters already incremented by earlier modules are not rolled back.

A Finalize error suppresses serialization of that module only. An event
source error or context cancellation stops the event loop, after which all
modules are still finalized and serialized so that partial results are
usable; the error is returned as an EventAccessError or CancellationError.

# Concurrency

The driver is single-threaded. One event passes through every module before
the next is read, and modules communicate only through the Outputs record.
An event view must not be retained past the Process call that received it.

# Observability

Run accepts a logger (log/slog), an OpenTelemetry metrics recorder and an
OpenTelemetry span manager through RunOptions. All are optional.
*/
package hepflow
