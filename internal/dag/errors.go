package dag

import (
	"fmt"
	"strings"
)

// CycleError reports that the residual work set could not be peeled into a
// linear order: the named entity types form or feed an unresolvable cycle.
// Types are sorted by name so the message is reproducible.
type CycleError struct {
	Types []EntityType
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = string(t)
	}
	return fmt.Sprintf("cannot resolve dependency order for: %s", strings.Join(names, ", "))
}

// UnresolvedStateError reports that the admission loop found no ready work
// and no in-flight work while pending work remained. Sequencing already
// proved the graph resolvable, so this indicates the graph or the work set
// changed between sequencing and execution. It aborts the run but is
// returned to the caller rather than crashing the process.
type UnresolvedStateError struct {
	Pending []EntityType
}

// Error implements the error interface.
func (e *UnresolvedStateError) Error() string {
	names := make([]string, len(e.Pending))
	for i, t := range e.Pending {
		names[i] = string(t)
	}
	return fmt.Sprintf("scheduler stalled with pending work: %s", strings.Join(names, ", "))
}
