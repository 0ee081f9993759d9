package dag

import "sort"

// Sequence produces one valid linear order of the work set that respects the
// dependency graph. The result is deterministic for a fixed input ordering:
// the declared type order is reversed and then peeled in repeated passes,
// appending each type once every dependency of it is either outside the work
// set or already appended. A pass that makes no progress means the remaining
// types form an unresolvable cycle, reported as a *CycleError naming them
// sorted by name.
//
// The returned slice contains one work unit per (type, handler) pairing, with
// a type's handlers kept in their declaration order. The graph is returned
// unchanged for the executor, whose admission check needs the raw dependency
// sets rather than the linear order.
func Sequence(units []WorkUnit, graph Graph) ([]WorkUnit, Graph, error) {
	// Distinct types in declaration order, with their units grouped.
	var typeOrder []EntityType
	byType := make(map[EntityType][]WorkUnit)
	for _, unit := range units {
		if _, ok := byType[unit.Type]; !ok {
			typeOrder = append(typeOrder, unit.Type)
		}
		byType[unit.Type] = append(byType[unit.Type], unit)
	}

	working := make([]EntityType, len(typeOrder))
	for i, t := range typeOrder {
		working[len(typeOrder)-1-i] = t
	}

	appended := make(TypeSet, len(typeOrder))
	var sortedTypes []EntityType

	for len(working) > 0 {
		var deferred []EntityType
		changed := false

		// Pop from the back so the scan visits types in declaration order.
		for i := len(working) - 1; i >= 0; i-- {
			t := working[i]
			if ready(graph.Dependencies(t), appended) {
				sortedTypes = append(sortedTypes, t)
				appended.Add(t)
				changed = true
			} else {
				deferred = append(deferred, t)
			}
		}

		if !changed {
			stuck := make([]EntityType, len(deferred))
			copy(stuck, deferred)
			sort.Slice(stuck, func(i, j int) bool { return stuck[i] < stuck[j] })
			return nil, nil, &CycleError{Types: stuck}
		}

		// deferred was collected in scan order; flip it so the working list
		// keeps its reversed orientation for the next pass.
		for i, j := 0, len(deferred)-1; i < j; i, j = i+1, j-1 {
			deferred[i], deferred[j] = deferred[j], deferred[i]
		}
		working = deferred
	}

	ordered := make([]WorkUnit, 0, len(units))
	for _, t := range sortedTypes {
		ordered = append(ordered, byType[t]...)
	}
	return ordered, graph, nil
}

// ready reports whether every dependency has already been appended. Build
// drops dependencies outside the work set, so membership in the graph's set
// is enough here.
func ready(deps TypeSet, appended TypeSet) bool {
	for dep := range deps {
		if !appended.Contains(dep) {
			return false
		}
	}
	return true
}
