package hepflow

// ResolvedGraph is an immutable, validated module graph in execution order.
// Create it with Graph.Resolve. It is safe to share; Run must not be called
// concurrently since modules carry job-scoped state.
type ResolvedGraph struct {
	modules    []Module
	names      []string
	index      map[string]int
	deps       map[string][]string
	dependents map[string][]string
	depth      map[string]int
}

// buildResolvedGraph creates the ResolvedGraph from the builder state.
// order holds registration indices; depNames is indexed by registration index.
func (g *Graph) buildResolvedGraph(order []int, depNames [][]string) *ResolvedGraph {
	rg := &ResolvedGraph{
		modules:    make([]Module, 0, len(order)),
		names:      make([]string, 0, len(order)),
		index:      make(map[string]int, len(order)),
		deps:       make(map[string][]string, len(order)),
		dependents: make(map[string][]string, len(order)),
		depth:      make(map[string]int, len(order)),
	}

	for pos, i := range order {
		m := g.modules[i]
		name := m.Name()
		rg.modules = append(rg.modules, m)
		rg.names = append(rg.names, name)
		rg.index[name] = pos
		rg.deps[name] = append([]string(nil), depNames[i]...)

		// Dependencies precede name in order, so their depth is known.
		d := 0
		for _, dep := range depNames[i] {
			rg.dependents[dep] = append(rg.dependents[dep], name)
			if rg.depth[dep]+1 > d {
				d = rg.depth[dep] + 1
			}
		}
		rg.depth[name] = d
	}

	return rg
}

// Order returns the module names in execution order.
func (rg *ResolvedGraph) Order() []string {
	return append([]string(nil), rg.names...)
}

// Len returns the number of modules.
func (rg *ResolvedGraph) Len() int {
	return len(rg.modules)
}

// HasModule reports whether the named module is part of the graph.
func (rg *ResolvedGraph) HasModule(name string) bool {
	_, ok := rg.index[name]
	return ok
}

// Module returns the named module.
func (rg *ResolvedGraph) Module(name string) (Module, bool) {
	i, ok := rg.index[name]
	if !ok {
		return nil, false
	}
	return rg.modules[i], true
}

// Dependencies returns the declared dependencies of a module, deduplicated,
// in declaration order.
func (rg *ResolvedGraph) Dependencies(name string) []string {
	return append([]string(nil), rg.deps[name]...)
}

// Dependents returns the modules declaring a dependency on name, in
// execution order.
func (rg *ResolvedGraph) Dependents(name string) []string {
	return append([]string(nil), rg.dependents[name]...)
}

// Depth returns the length of the longest dependency chain below a module.
// Modules without dependencies have depth 0; unknown modules return -1.
func (rg *ResolvedGraph) Depth(name string) int {
	d, ok := rg.depth[name]
	if !ok {
		return -1
	}
	return d
}
