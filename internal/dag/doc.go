// Package dag contains the dependency-ordered scheduler at the heart of
// seedvault: it builds a dependency graph over the entity types selected for
// a snapshot run, proves the graph resolvable by producing one deterministic
// linear order, and executes the per-type work either serially or through a
// concurrency-bounded polling executor that fails fast on the first error.
//
// The graph and the order are derived fresh on every run and discarded
// afterwards; nothing in this package persists state between runs.
package dag
