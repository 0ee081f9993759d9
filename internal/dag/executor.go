package dag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/seedvault/internal/ctxlog"
)

// DefaultPollInterval is the fixed delay between admission passes in
// concurrent mode. Polling trades a small fixed latency for a single
// controller loop: one place owns admission, completion, and abort, instead
// of N-way completion signaling.
const DefaultPollInterval = 500 * time.Millisecond

// Runner executes one unit of work. Units for different entity types may run
// concurrently; a runner must not assume exclusive access to anything not
// scoped to the unit's own entity type.
type Runner interface {
	RunUnit(ctx context.Context, unit WorkUnit) error
}

// ProgressFunc receives the label of the unit most recently touched and the
// monotonically increasing count of completed units. It is only ever called
// from the controller goroutine.
type ProgressFunc func(label string, completed int)

// Executor runs a sequenced work set. Concurrency <= 1 selects serial mode,
// which walks the pre-sorted unit list in order. Anything above 1 selects the
// admission loop, which ignores list position and gates execution purely on
// dependency-set readiness, so independent types fill the budget in the
// first wave regardless of where sequencing placed them.
type Executor struct {
	runner       Runner
	concurrency  int
	pollInterval time.Duration
	progress     ProgressFunc
}

// NewExecutor creates an executor with the default poll interval and no
// progress reporting.
func NewExecutor(runner Runner, concurrency int) *Executor {
	return &Executor{
		runner:       runner,
		concurrency:  concurrency,
		pollInterval: DefaultPollInterval,
	}
}

// WithPollInterval overrides the fixed delay between admission passes.
func (e *Executor) WithPollInterval(d time.Duration) *Executor {
	if d > 0 {
		e.pollInterval = d
	}
	return e
}

// WithProgress attaches a progress callback.
func (e *Executor) WithProgress(fn ProgressFunc) *Executor {
	e.progress = fn
	return e
}

// Run executes every unit in the ordered work set, respecting the dependency
// graph. It returns the first unit failure, a *UnresolvedStateError if the
// admission loop stalls, or the context error if the caller cancels. An
// empty work set completes immediately.
func (e *Executor) Run(ctx context.Context, ordered []WorkUnit, graph Graph) error {
	if len(ordered) == 0 {
		return nil
	}
	if e.concurrency <= 1 {
		return e.runSerial(ctx, ordered)
	}
	return e.runConcurrent(ctx, ordered, graph)
}

func (e *Executor) runSerial(ctx context.Context, ordered []WorkUnit) error {
	logger := ctxlog.FromContext(ctx)
	completed := 0

	for _, unit := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.report(unitLabel(unit), completed)
		logger.Debug("Running unit.", "type", unit.Type, "handler", unit.Handler.Name())
		if err := e.runner.RunUnit(ctx, unit); err != nil {
			return fmt.Errorf("unit %s: %w", unitLabel(unit), err)
		}
		completed++
		e.report(unitLabel(unit), completed)
	}
	return nil
}

// typeGroup is all work units of one entity type. The type is admitted as a
// whole: its units run sequentially inside one worker, in declaration order,
// so the done/in-flight/pending partitions stay keyed by entity type.
type typeGroup struct {
	typ   EntityType
	units []WorkUnit
}

// inflight is the handle of a running type group. The worker goroutine
// writes err before flipping finished; the controller reads err only after
// observing finished, so no lock is needed.
type inflight struct {
	group    *typeGroup
	finished atomic.Bool
	err      error
}

func (e *Executor) runConcurrent(ctx context.Context, ordered []WorkUnit, graph Graph) error {
	logger := ctxlog.FromContext(ctx)

	groups := groupByType(ordered)

	// Cancellation is best-effort: a unit mid-I/O runs to its own
	// completion or failure, and we wait for it before returning. Deferred
	// LIFO order matters here: cancel fires before the wait.
	var wg sync.WaitGroup
	defer wg.Wait()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(TypeSet, len(groups))
	inFlight := make(map[EntityType]*inflight)
	completed := 0

	for len(done) < len(groups) {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Admission pass: dependency sets, not list position, gate entry.
		for _, g := range groups {
			if len(inFlight) >= e.concurrency {
				break
			}
			if done.Contains(g.typ) {
				continue
			}
			if _, running := inFlight[g.typ]; running {
				continue
			}
			if !graph.Dependencies(g.typ).SubsetOf(done) {
				continue
			}

			fl := &inflight{group: g}
			inFlight[g.typ] = fl
			e.report(unitLabel(g.units[0]), completed)
			logger.Debug("Admitting type.", "type", g.typ, "in_flight", len(inFlight))

			wg.Add(1)
			go func() {
				defer wg.Done()
				fl.err = e.runGroup(runCtx, fl.group)
				fl.finished.Store(true)
			}()
		}

		if len(inFlight) == 0 {
			// Sequencing proved the graph resolvable, so a stall means the
			// graph or the work set changed underneath us.
			pending := make(TypeSet)
			for _, g := range groups {
				if !done.Contains(g.typ) {
					pending.Add(g.typ)
				}
			}
			return &UnresolvedStateError{Pending: pending.Sorted()}
		}

		select {
		case <-time.After(e.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}

		// Completion pass. Scanning groups in declared order keeps "first
		// failure" deterministic within a poll cycle.
		for _, g := range groups {
			fl, running := inFlight[g.typ]
			if !running || !fl.finished.Load() {
				continue
			}
			if fl.err != nil {
				logger.Error("Unit failed, aborting run.", "type", g.typ, "error", fl.err)
				cancel()
				return fl.err
			}
			delete(inFlight, g.typ)
			done.Add(g.typ)
			completed += len(g.units)
			e.report(unitLabel(g.units[len(g.units)-1]), completed)
			logger.Debug("Type completed.", "type", g.typ, "completed", completed)
		}
	}
	return nil
}

// runGroup runs a type's handlers in declaration order inside one worker.
func (e *Executor) runGroup(ctx context.Context, g *typeGroup) error {
	for _, unit := range g.units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runner.RunUnit(ctx, unit); err != nil {
			return fmt.Errorf("unit %s: %w", unitLabel(unit), err)
		}
	}
	return nil
}

func (e *Executor) report(label string, completed int) {
	if e.progress != nil {
		e.progress(label, completed)
	}
}

func groupByType(ordered []WorkUnit) []*typeGroup {
	var groups []*typeGroup
	index := make(map[EntityType]*typeGroup)
	for _, unit := range ordered {
		g, ok := index[unit.Type]
		if !ok {
			g = &typeGroup{typ: unit.Type}
			index[unit.Type] = g
			groups = append(groups, g)
		}
		g.units = append(g.units, unit)
	}
	return groups
}

func unitLabel(unit WorkUnit) string {
	return fmt.Sprintf("%s (%s)", unit.Type, unit.Handler.Name())
}
