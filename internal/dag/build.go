package dag

// DependsFunc reports the declared dependencies of an entity type: relational
// references, join-table edges, and any extra dependencies configured on the
// type's handlers, all resolved into the same entity-type namespace. Unknown
// or malformed references resolve to no dependency rather than an error.
type DependsFunc func(t EntityType) []EntityType

// Build computes the dependency graph for the given work set. For every
// entity type present in the work set it unions the declared dependencies,
// dropping self-references and any dependency on a type outside the work set;
// types that will not be scheduled this run are treated as already satisfied.
//
// Build is a pure function of its inputs and performs no cycle detection.
// Cycles can only be conclusively identified while attempting a full
// ordering, which is Sequence's job.
func Build(units []WorkUnit, depends DependsFunc) Graph {
	active := make(TypeSet, len(units))
	for _, unit := range units {
		active.Add(unit.Type)
	}

	graph := make(Graph, len(active))
	for _, unit := range units {
		if _, ok := graph[unit.Type]; ok {
			continue
		}
		deps := make(TypeSet)
		for _, dep := range depends(unit.Type) {
			if dep == unit.Type || !active.Contains(dep) {
				continue
			}
			deps.Add(dep)
		}
		graph[unit.Type] = deps
	}
	return graph
}
