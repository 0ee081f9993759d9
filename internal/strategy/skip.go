package strategy

// Skip is a declared placeholder for entity types that are rebuilt locally
// rather than snapshotted. It holds the type's place in the dependency graph
// but performs no I/O in either direction.
type Skip struct {
	name string
	deps []string
}

// NewSkip creates a skip strategy.
func NewSkip(name string, deps []string) *Skip {
	return &Skip{name: name, deps: deps}
}

// Name implements Strategy.
func (s *Skip) Name() string { return s.name }

// Capabilities implements Strategy.
func (s *Skip) Capabilities() Capability { return 0 }

// ExtraDeps implements Strategy.
func (s *Skip) ExtraDeps() []string { return s.deps }
