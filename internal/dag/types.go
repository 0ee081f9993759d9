package dag

import "sort"

// EntityType identifies one class of records scheduled as a unit, using the
// "app.Model" label form. It is the node identity of the dependency graph.
type EntityType string

// Handler is the per-type strategy the scheduler dispatches but does not
// interpret. Execution lives behind the Runner interface; the scheduler only
// needs a stable display name for ordering diagnostics and progress labels.
type Handler interface {
	Name() string
}

// WorkUnit pairs an entity type with one of its handlers. A type may carry
// several handlers; they share the type's position in the dependency order
// and keep their declaration order relative to each other.
type WorkUnit struct {
	Type    EntityType
	Handler Handler
}

// TypeSet is a set of entity types.
type TypeSet map[EntityType]struct{}

// NewTypeSet builds a set from the given types.
func NewTypeSet(types ...EntityType) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports whether t is in the set.
func (s TypeSet) Contains(t EntityType) bool {
	_, ok := s[t]
	return ok
}

// Add inserts t into the set.
func (s TypeSet) Add(t EntityType) {
	s[t] = struct{}{}
}

// SubsetOf reports whether every member of s is also in other.
func (s TypeSet) SubsetOf(other TypeSet) bool {
	for t := range s {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order, for reproducible output.
func (s TypeSet) Sorted() []EntityType {
	out := make([]EntityType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Graph maps each entity type in the work set to the set of entity types
// that must complete before it.
type Graph map[EntityType]TypeSet

// Dependencies returns the dependency set of t, which may be nil.
func (g Graph) Dependencies(t EntityType) TypeSet {
	return g[t]
}
