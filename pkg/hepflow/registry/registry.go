package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Sentinel errors for registry operations.
var (
	// ErrDuplicate indicates a name is already registered.
	ErrDuplicate = errors.New("already registered")

	// ErrUnknown indicates a name is not registered.
	ErrUnknown = errors.New("not registered")
)

// Registry is a thread-safe, name-keyed set of values. Names are unique:
// registering a name twice is an error, never an overwrite. Names are
// reported in registration order.
type Registry[V any] struct {
	mu      sync.RWMutex
	kind    string
	entries map[string]V
	order   []string
}

// New creates an empty registry. kind names the values ("filter", "scale
// factor") in error messages.
func New[V any](kind string) *Registry[V] {
	return &Registry[V]{
		kind:    kind,
		entries: make(map[string]V),
	}
}

// Kind returns the value kind used in error messages.
func (r *Registry[V]) Kind() string {
	return r.kind
}

// Register adds a value. Returns an error matching ErrDuplicate if the name
// is taken.
func (r *Registry[V]) Register(name string, value V) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%s %q: %w", r.kind, name, ErrDuplicate)
	}
	r.entries[name] = value
	r.order = append(r.order, name)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[V]) MustRegister(name string, value V) {
	if err := r.Register(name, value); err != nil {
		panic("registry: " + err.Error())
	}
}

// Get returns the value for a name and whether it exists.
func (r *Registry[V]) Get(name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	return v, ok
}

// Lookup returns the value for a name, or an error matching ErrUnknown.
func (r *Registry[V]) Lookup(name string) (V, error) {
	v, ok := r.Get(name)
	if !ok {
		return v, fmt.Errorf("%s %q: %w", r.kind, name, ErrUnknown)
	}
	return v, nil
}

// LookupAll resolves names in order. Every unknown name is reported.
func (r *Registry[V]) LookupAll(names []string) ([]V, error) {
	out := make([]V, 0, len(names))
	var errs []error
	for _, name := range names {
		v, err := r.Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, v)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Has returns true if the name is registered.
func (r *Registry[V]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry[V]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of entries.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range calls fn for each entry in registration order, over a snapshot.
// If fn returns false, iteration stops.
func (r *Registry[V]) Range(fn func(name string, value V) bool) {
	r.mu.RLock()
	names := slices.Clone(r.order)
	values := make([]V, len(names))
	for i, name := range names {
		values[i] = r.entries[name]
	}
	r.mu.RUnlock()

	for i, name := range names {
		if !fn(name, values[i]) {
			return
		}
	}
}
