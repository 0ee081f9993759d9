// Package strategy defines the per-entity-type handlers the scheduler
// dispatches: each strategy knows how to export an entity type's rows into
// the snapshot destination and import them back. Strategies state their
// capabilities up front so the engine checks them once at startup instead of
// probing at runtime.
package strategy

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vk/seedvault/internal/metacache"
	"github.com/vk/seedvault/internal/storage"
)

// Capability tags what a strategy can do.
type Capability uint8

const (
	// CapExport marks a strategy that writes data into the destination.
	CapExport Capability = 1 << iota
	// CapImport marks a strategy that loads data back into the database.
	CapImport
)

// Has reports whether c includes the given capability.
func (c Capability) Has(cap Capability) bool { return c&cap != 0 }

// ModelRef is the resolved descriptor of one configured entity type.
type ModelRef struct {
	// Label is the "app.Model" entity-type identifier.
	Label string
	// Table is the backing table name.
	Table string
	// PrimaryKey is the primary key column name.
	PrimaryKey string
}

// DB is the subset of pgxpool.Pool strategies use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// RunContext carries the collaborators one unit execution may touch. Units
// for different entity types run concurrently; everything here is safe for
// that, and nothing here is scoped narrower than a run.
type RunContext struct {
	DB   DB
	Dest storage.Destination
	// PKs caches exported primary keys per entity-type label, read through
	// from the destination.
	PKs *metacache.Cache[[]string]
	// Resolve maps an entity-type label to its model descriptor, when the
	// label is part of the configured work set.
	Resolve func(label string) (ModelRef, bool)
	// NoUpdate skips exporting a type whose data already exists in the
	// destination.
	NoUpdate bool
}

// Strategy is the common surface of every handler.
type Strategy interface {
	// Name is the configured strategy name, used in progress labels.
	Name() string
	// Capabilities is fixed at construction time.
	Capabilities() Capability
	// ExtraDeps lists additional entity-type labels that must complete
	// before this strategy's type, beyond what the database schema implies.
	ExtraDeps() []string
}

// Exporter is implemented by strategies with CapExport.
type Exporter interface {
	Strategy
	Export(ctx context.Context, rc *RunContext, model ModelRef) error
}

// Importer is implemented by strategies with CapImport.
type Importer interface {
	Strategy
	Import(ctx context.Context, rc *RunContext, model ModelRef) error
}

// ExportedPKs returns the primary keys already exported for the given model,
// read through the run's cache.
func (rc *RunContext) ExportedPKs(ctx context.Context, model ModelRef) ([]string, error) {
	return rc.PKs.Get(model.Label, func() ([]string, error) {
		records, err := readRecords(ctx, rc.Dest, model.Label)
		if err != nil {
			return nil, err
		}
		pks := make([]string, 0, len(records))
		for _, rec := range records {
			pk, ok := rec[model.PrimaryKey]
			if !ok {
				return nil, fmt.Errorf("exported record of %s lacks primary key column %q", model.Label, model.PrimaryKey)
			}
			pks = append(pks, fmt.Sprint(pk))
		}
		return pks, nil
	})
}
