// Package engine orchestrates a snapshot run: it binds configured models and
// strategies into schedulable work units, derives the dependency graph from
// the database schema plus declared extras, sequences it, and drives the
// executor in export or import direction.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/seedvault/internal/config"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/vk/seedvault/internal/dag"
	"github.com/vk/seedvault/internal/dbmeta"
	"github.com/vk/seedvault/internal/metacache"
	"github.com/vk/seedvault/internal/migrate"
	"github.com/vk/seedvault/internal/progress"
	"github.com/vk/seedvault/internal/registry"
	"github.com/vk/seedvault/internal/storage"
	"github.com/vk/seedvault/internal/strategy"
)

// defaultPrimaryKey is assumed when a model does not name one.
const defaultPrimaryKey = "id"

// Options tune one engine instance.
type Options struct {
	// Concurrency bounds simultaneously running entity types. Zero or one
	// selects serial execution.
	Concurrency int
	// NoUpdate skips exporting types whose data already exists in the
	// destination.
	NoUpdate bool
	// PollInterval overrides the executor's admission poll delay. Zero keeps
	// the default.
	PollInterval time.Duration
	// Sink receives completion updates. Nil discards them.
	Sink progress.Sink
}

// Engine runs exports and imports over one configured work set.
type Engine struct {
	model     *config.Model
	reg       *registry.Registry
	conv      config.Converter
	db        strategy.DB
	inspector *dbmeta.Inspector
	dest      storage.Destination
	opts      Options

	refs    []strategy.ModelRef
	byLabel map[string]strategy.ModelRef
}

// New creates an engine. The configured models are resolved immediately:
// missing tables default to a name derived from the label, missing primary
// keys default to "id".
func New(model *config.Model, reg *registry.Registry, conv config.Converter, db strategy.DB, dest storage.Destination, opts Options) (*Engine, error) {
	inspector, err := dbmeta.NewInspector(db)
	if err != nil {
		return nil, err
	}
	if opts.Sink == nil {
		opts.Sink = progress.Noop{}
	}

	e := &Engine{
		model:     model,
		reg:       reg,
		conv:      conv,
		db:        db,
		inspector: inspector,
		dest:      dest,
		opts:      opts,
		byLabel:   make(map[string]strategy.ModelRef, len(model.Models)),
	}
	for _, mc := range model.Models {
		if _, dup := e.byLabel[mc.Label]; dup {
			return nil, fmt.Errorf("model %q configured twice", mc.Label)
		}
		ref := strategy.ModelRef{Label: mc.Label, Table: mc.Table, PrimaryKey: mc.PrimaryKey}
		if ref.Table == "" {
			ref.Table = dbmeta.DeriveTableName(mc.Label)
		}
		if ref.PrimaryKey == "" {
			ref.PrimaryKey = defaultPrimaryKey
		}
		e.refs = append(e.refs, ref)
		e.byLabel[mc.Label] = ref
	}
	return e, nil
}

// boundUnit is one (model, strategy) pair, schedulable as a dag handler.
type boundUnit struct {
	model strategy.ModelRef
	strat strategy.Strategy
}

// Name implements dag.Handler.
func (u *boundUnit) Name() string { return u.strat.Name() }

// Export runs every export-capable unit in dependency order.
func (e *Engine) Export(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("📤 Starting export.", "models", len(e.refs), "concurrency", e.opts.Concurrency)

	if err := migrate.ExportState(ctx, e.db, e.dest); err != nil {
		return err
	}
	if err := e.run(ctx, exportDirection); err != nil {
		return err
	}
	logger.Info("🎉 Export finished.")
	return nil
}

// Import runs every import-capable unit in dependency order, restores the
// migration ledger first, and realigns serial sequences afterwards.
func (e *Engine) Import(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("📥 Starting import.", "models", len(e.refs), "concurrency", e.opts.Concurrency)

	if err := migrate.ImportState(ctx, e.db, e.dest); err != nil {
		return err
	}
	if err := e.run(ctx, importDirection); err != nil {
		return err
	}
	for _, ref := range e.refs {
		if err := migrate.ResetSequences(ctx, e.db, ref.Table, ref.PrimaryKey); err != nil {
			return err
		}
	}
	logger.Info("🎉 Import finished.")
	return nil
}

type direction int

const (
	exportDirection direction = iota
	importDirection
)

func (e *Engine) run(ctx context.Context, dir direction) error {
	e.inspector.Reset()

	if err := e.reportUnconfigured(ctx); err != nil {
		return err
	}

	units, err := e.buildUnits(ctx)
	if err != nil {
		return err
	}
	depends, err := e.dependsFunc(ctx, units)
	if err != nil {
		return err
	}

	graph := dag.Build(units, depends)
	ordered, graph, err := dag.Sequence(units, graph)
	if err != nil {
		return err
	}

	pks, err := metacache.New[[]string](metacache.DefaultSize)
	if err != nil {
		return err
	}
	runner := &unitRunner{
		dir: dir,
		rc: &strategy.RunContext{
			DB:       e.db,
			Dest:     e.dest,
			PKs:      pks,
			Resolve:  e.resolve,
			NoUpdate: e.opts.NoUpdate,
		},
	}

	sink := e.opts.Sink
	sink.Start(len(ordered))
	defer sink.Done()

	exec := dag.NewExecutor(runner, e.opts.Concurrency).
		WithPollInterval(e.opts.PollInterval).
		WithProgress(func(label string, completed int) {
			sink.Update(label, completed)
		})
	return exec.Run(ctx, ordered, graph)
}

// reportUnconfigured warns about database tables no configured model covers,
// so a table added without a model declaration surfaces instead of silently
// vanishing from snapshots. Pure join tables ride along as dependency edges
// and the migration ledger is handled separately, so neither is reported.
func (e *Engine) reportUnconfigured(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	names, err := e.inspector.TableNames(ctx)
	if err != nil {
		return err
	}
	configured := make(map[string]struct{}, len(e.refs))
	for _, ref := range e.refs {
		configured[ref.Table] = struct{}{}
	}
	for _, name := range names {
		if _, ok := configured[name]; ok || name == migrate.LedgerTable {
			continue
		}
		info, err := e.inspector.Table(ctx, name)
		if err != nil {
			return err
		}
		if info.IsJoinTable() {
			continue
		}
		logger.Warn("Table has no configured model and is not part of the snapshot.", "table", name)
	}
	return nil
}

func (e *Engine) resolve(label string) (strategy.ModelRef, bool) {
	ref, ok := e.byLabel[label]
	return ref, ok
}

// buildUnits instantiates every configured strategy, in configuration order.
func (e *Engine) buildUnits(ctx context.Context) ([]dag.WorkUnit, error) {
	var units []dag.WorkUnit
	for _, mc := range e.model.Models {
		ref := e.byLabel[mc.Label]
		for _, sc := range mc.Strategies {
			strat, err := e.reg.Build(ctx, sc, e.conv)
			if err != nil {
				return nil, fmt.Errorf("model %q: %w", mc.Label, err)
			}
			units = append(units, dag.WorkUnit{
				Type:    dag.EntityType(mc.Label),
				Handler: &boundUnit{model: ref, strat: strat},
			})
		}
	}
	return units, nil
}

// dependsFunc precomputes each type's dependency labels: foreign-key targets
// translated from table names back to labels, plus every strategy's declared
// extras. Tables outside the work set contribute nothing.
func (e *Engine) dependsFunc(ctx context.Context, units []dag.WorkUnit) (dag.DependsFunc, error) {
	labelByTable := make(map[string]string, len(e.refs))
	for _, ref := range e.refs {
		labelByTable[ref.Table] = ref.Label
	}

	deps := make(map[dag.EntityType][]dag.EntityType)
	for _, unit := range units {
		bu := unit.Handler.(*boundUnit)
		if _, seen := deps[unit.Type]; !seen {
			tables, err := e.inspector.Dependencies(ctx, bu.model.Table)
			if err != nil {
				return nil, fmt.Errorf("inspecting dependencies of %s: %w", bu.model.Label, err)
			}
			var labels []dag.EntityType
			for _, table := range tables {
				if label, ok := labelByTable[table]; ok {
					labels = append(labels, dag.EntityType(label))
				}
			}
			deps[unit.Type] = labels
		}
		for _, extra := range bu.strat.ExtraDeps() {
			deps[unit.Type] = append(deps[unit.Type], dag.EntityType(extra))
		}
	}

	return func(t dag.EntityType) []dag.EntityType {
		return deps[t]
	}, nil
}

// unitRunner dispatches one unit in the run's direction. Units whose strategy
// lacks the direction's capability complete as no-ops, holding their place in
// the order without touching the database or destination.
type unitRunner struct {
	dir direction
	rc  *strategy.RunContext
}

// RunUnit implements dag.Runner.
func (r *unitRunner) RunUnit(ctx context.Context, unit dag.WorkUnit) error {
	bu, ok := unit.Handler.(*boundUnit)
	if !ok {
		return fmt.Errorf("unexpected handler type %T", unit.Handler)
	}
	logger := ctxlog.FromContext(ctx)

	switch r.dir {
	case exportDirection:
		exporter, ok := bu.strat.(strategy.Exporter)
		if !ok || !bu.strat.Capabilities().Has(strategy.CapExport) {
			logger.Debug("Strategy does not export, skipping.", "type", bu.model.Label, "strategy", bu.strat.Name())
			return nil
		}
		return exporter.Export(ctx, r.rc, bu.model)
	case importDirection:
		importer, ok := bu.strat.(strategy.Importer)
		if !ok || !bu.strat.Capabilities().Has(strategy.CapImport) {
			logger.Debug("Strategy does not import, skipping.", "type", bu.model.Label, "strategy", bu.strat.Name())
			return nil
		}
		return importer.Import(ctx, r.rc, bu.model)
	}
	return fmt.Errorf("unknown direction %d", r.dir)
}
