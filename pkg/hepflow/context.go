package hepflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
)

// Context provides execution context to modules.
// It extends context.Context with job-specific services and metadata.
//
// The driver creates one Context per module at the start of a run and
// reuses it for every call on that module.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and module context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this job run.
	RunID() string

	// Module returns the name of the module being called.
	Module() string

	// Event returns the identifier of the event being processed.
	// It is the zero ID during Finalize and Persist.
	Event() event.ID
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	module string
	event  event.ID
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// Module returns the current module name.
func (c *executionContext) Module() string {
	return c.module
}

// Event returns the current event identifier.
func (c *executionContext) Event() event.ID {
	return c.event
}

// ContextOption configures a Context created with NewContext.
type ContextOption func(*executionContext)

// WithContextLogger sets the logger for the context.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// WithContextModule sets the module name reported by the context.
func WithContextModule(name string) ContextOption {
	return func(c *executionContext) {
		c.module = name
	}
}

// NewContext creates a module Context from a standard context.
// The driver builds its own contexts; NewContext is for calling module
// hooks directly, e.g. in tests.
//
// Example:
//
//	ctx := hepflow.NewContext(context.Background(),
//	    hepflow.WithContextModule("zpeak"))
//	out, err := m.Process(ctx, view, hepflow.Outputs{})
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withModule returns a new context for the named module.
// Used internally by the driver to enrich the context per module.
func (c *executionContext) withModule(name string) *executionContext {
	return &executionContext{
		Context: c.Context,
		logger:  c.logger.With("run_id", c.runID, "module", name),
		runID:   c.runID,
		module:  name,
	}
}
