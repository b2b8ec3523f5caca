package hepflow

import (
	"container/heap"
	"errors"
	"sort"
)

// Resolve validates the graph and computes the execution order.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks:
//  1. Every declared dependency names a registered module
//  2. The dependencies form a directed acyclic graph (self-dependencies included)
//  3. No two modules claim the same output entry name (see OutputNamer)
//
// The order is a stable topological sort: whenever several modules are
// ready, the one registered first is taken. Resolve does not modify the
// graph and may be called again after more modules are added.
func (g *Graph) Resolve() (*ResolvedGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := len(g.modules)
	var errs []error

	// deps[i] holds the registration indices of module i's dependencies,
	// deduplicated and sorted.
	deps := make([][]int, n)
	depNames := make([][]string, n)
	for i, m := range g.modules {
		seen := make(map[string]bool)
		for _, d := range m.Dependencies() {
			if seen[d] {
				continue
			}
			seen[d] = true
			j, ok := g.index[d]
			if !ok {
				errs = append(errs, &MissingDependencyError{Module: m.Name(), Dependency: d})
				continue
			}
			deps[i] = append(deps[i], j)
			depNames[i] = append(depNames[i], d)
		}
		sort.Ints(deps[i])
	}

	order := stableTopoOrder(deps)
	if len(order) < n {
		errs = append(errs, &CycleError{Path: g.findCycle(deps, order)})
	}

	errs = append(errs, g.outputCollisions()...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildResolvedGraph(order, depNames), nil
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// stableTopoOrder runs Kahn's algorithm with a min-heap ready queue keyed by
// registration index. Modules on or downstream of a cycle are left out.
func stableTopoOrder(deps [][]int) []int {
	n := len(deps)
	indeg := make([]int, n)
	dependents := make([][]int, n)
	for i, ds := range deps {
		indeg[i] = len(ds)
		for _, d := range ds {
			dependents[d] = append(dependents[d], i)
		}
	}

	ready := &intMinHeap{}
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, n)
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		out = append(out, u)
		for _, v := range dependents[u] {
			indeg[v]--
			if indeg[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}
	return out
}

// findCycle extracts one cycle among the modules missing from order, using a
// DFS over registration indices so the reported path is deterministic.
// The path follows "depends on" edges and repeats its first module at the end.
func (g *Graph) findCycle(deps [][]int, order []int) []string {
	const (
		white = iota
		gray
		black
	)

	n := len(deps)
	color := make([]int, n)
	for _, i := range order {
		color[i] = black
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range deps[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v: walk parents from u up to v.
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < n; i++ {
		if color[i] == white && dfs(i) {
			break
		}
	}

	// cycle is [u, parent(u), ..., v]; dependency direction runs v -> ... -> u -> v.
	path := make([]string, 0, len(cycle)+1)
	for i := len(cycle) - 1; i >= 0; i-- {
		path = append(path, g.modules[cycle[i]].Name())
	}
	if len(cycle) > 0 {
		path = append(path, g.modules[cycle[len(cycle)-1]].Name())
	}
	return path
}

// outputCollisions reports output entry names claimed more than once.
func (g *Graph) outputCollisions() []error {
	owners := make(map[string][]string)
	var names []string
	for _, m := range g.modules {
		namer, ok := m.(OutputNamer)
		if !ok {
			continue
		}
		for _, name := range namer.OutputNames() {
			if _, seen := owners[name]; !seen {
				names = append(names, name)
			}
			owners[name] = append(owners[name], m.Name())
		}
	}

	var errs []error
	for _, name := range names {
		if len(owners[name]) > 1 {
			errs = append(errs, &DuplicateNameError{Kind: "output", Name: name, Owners: owners[name]})
		}
	}
	return errs
}
