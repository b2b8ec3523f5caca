// Package registry provides a thread-safe, name-keyed registry.
//
// Job assembly uses one registry per kind of named building block (filters,
// scale factors, extractor factories). Registries are created per job, so
// there is no process-wide state.
//
// # Basic Usage
//
//	filters := registry.New[selection.Filter]("filter")
//	if err := filters.Register("trigger", trig); err != nil {
//	    return err // matches registry.ErrDuplicate
//	}
//
//	f, err := filters.Lookup("trigger")   // err matches registry.ErrUnknown
//	all, err := filters.LookupAll(names)  // every unknown name is reported
//
// # Ordering
//
// Names and Range follow registration order, so anything derived from a
// registry is deterministic.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Range iterates over a snapshot,
// so fn may register new entries without affecting the iteration.
package registry
