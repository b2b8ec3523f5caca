package hepflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
)

// ErrConfiguration is matched (errors.Is) by every setup-time error:
// ConfigurationError, DuplicateNameError, MissingDependencyError and CycleError.
var ErrConfiguration = errors.New("configuration error")

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilSource indicates Run() was called without an event source.
	ErrNilSource = errors.New("event source cannot be nil")
)

// ConfigurationError reports an invalid module or graph definition.
type ConfigurationError struct {
	// Module is the offending module, if any.
	Module string
	Msg    string
	// Err is the underlying cause. Its text is used when Msg is empty.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Module == "" {
		return "configuration error: " + msg
	}
	return fmt.Sprintf("configuration error: module %s: %s", e.Module, msg)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is makes the error match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// DuplicateNameError reports a name registered twice within one scope.
type DuplicateNameError struct {
	// Kind is what was named: "module", "histogram" or "output".
	Kind string
	Name string
	// Owners lists the modules claiming an output name, when known.
	Owners []string
}

// Error implements the error interface.
func (e *DuplicateNameError) Error() string {
	if len(e.Owners) > 0 {
		return fmt.Sprintf("duplicate %s name %q (claimed by %s)", e.Kind, e.Name, strings.Join(e.Owners, ", "))
	}
	return fmt.Sprintf("duplicate %s name %q", e.Kind, e.Name)
}

// Is makes the error match ErrConfiguration.
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrConfiguration
}

// MissingDependencyError reports a dependency on an unregistered module.
type MissingDependencyError struct {
	Module     string
	Dependency string
}

// Error implements the error interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("module %s depends on unregistered module %q", e.Module, e.Dependency)
}

// Is makes the error match ErrConfiguration.
func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrConfiguration
}

// CycleError reports a dependency cycle.
type CycleError struct {
	// Path lists the modules along the cycle, each depending on the next;
	// the first module is repeated at the end. A self-dependency is [m, m].
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

// Is makes the error match ErrConfiguration.
func (e *CycleError) Is(target error) bool {
	return target == ErrConfiguration
}

// ModuleProcessError wraps a Process failure with module and event context.
type ModuleProcessError struct {
	Module string
	Event  event.ID
	Err    error
}

// Error implements the error interface.
func (e *ModuleProcessError) Error() string {
	return fmt.Sprintf("module %s: event %s: %v", e.Module, e.Event, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ModuleProcessError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from a module hook.
// It includes the stack trace for debugging.
type PanicError struct {
	// Module is the module that panicked.
	Module string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("module %s panicked: %v", e.Module, e.Value)
}

// FinalizeError reports a Finalize failure. The module's output is not
// serialized; other modules are unaffected.
type FinalizeError struct {
	Module string
	Err    error
}

// Error implements the error interface.
func (e *FinalizeError) Error() string {
	return fmt.Sprintf("module %s: finalize: %v", e.Module, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FinalizeError) Unwrap() error {
	return e.Err
}

// PersistError reports a failure to serialize a module's output.
type PersistError struct {
	Module string
	Err    error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("persist summary: %v", e.Err)
	}
	return fmt.Sprintf("module %s: persist: %v", e.Module, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *PersistError) Unwrap() error {
	return e.Err
}

// EventAccessError reports an event source failure. The job was shut down
// gracefully: modules were finalized and serialized with the events read so far.
type EventAccessError struct {
	// EventsRead is the number of events read before the failure.
	EventsRead int64
	Err        error
}

// Error implements the error interface.
func (e *EventAccessError) Error() string {
	return fmt.Sprintf("event source failed after %d events: %v", e.EventsRead, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *EventAccessError) Unwrap() error {
	return e.Err
}

// CancellationError reports a job stopped by context cancellation. As with
// EventAccessError, partial results were finalized and serialized.
type CancellationError struct {
	// EventsRead is the number of events read before cancellation.
	EventsRead int64
	// Cause is the underlying cancellation cause (context.Canceled or context.DeadlineExceeded).
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled after %d events: %v", e.EventsRead, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
