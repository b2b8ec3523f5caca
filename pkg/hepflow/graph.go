package hepflow

import (
	"strings"
	"sync"
)

// Graph is a mutable builder for a job's module graph.
// Use NewGraph to create a graph, AddModule to register modules, then call
// Resolve to obtain the immutable ResolvedGraph that drives events.
//
// Graph is NOT intended for concurrent building, but its methods are guarded
// so a shared Graph does not corrupt itself.
//
// Example:
//
//	g := hepflow.NewGraph()
//	_ = g.AddModule(trigger)
//	_ = g.AddModule(zpeak) // depends on "trigger"
//
//	resolved, err := g.Resolve()
type Graph struct {
	mu      sync.RWMutex
	modules []Module
	index   map[string]int
}

// NewGraph creates an empty graph builder.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
	}
}

// AddModule registers a module. Registration order is the tie-break for
// modules with no ordering constraint between them.
//
// Returns a *ConfigurationError if m is nil or its name is empty or contains
// whitespace, and a *DuplicateNameError if the name is already registered.
// Dependencies are checked by Resolve, so modules may be added in any order.
func (g *Graph) AddModule(m Module) error {
	if m == nil {
		return &ConfigurationError{Msg: "module cannot be nil"}
	}
	name := m.Name()
	if name == "" {
		return &ConfigurationError{Msg: "module name cannot be empty"}
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return &ConfigurationError{Module: name, Msg: "module name cannot contain whitespace"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.index[name]; exists {
		return &DuplicateNameError{Kind: "module", Name: name}
	}

	g.index[name] = len(g.modules)
	g.modules = append(g.modules, m)
	return nil
}

// MustAddModule is like AddModule but panics on error.
func (g *Graph) MustAddModule(m Module) *Graph {
	if err := g.AddModule(m); err != nil {
		panic("hepflow: " + err.Error())
	}
	return g
}

// Len returns the number of registered modules.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

// Module returns the registered module with the given name.
func (g *Graph) Module(name string) (Module, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.modules[i], true
}
