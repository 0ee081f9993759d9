package strategy

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vk/seedvault/internal/ctxlog"
)

// QueryOptions are the configurable knobs of the query strategy.
type QueryOptions struct {
	// OrderBy orders the exported rows, typically by primary key, so
	// repeated exports diff cleanly.
	OrderBy string `sv:"order_by"`
	// Where restricts which rows are exported.
	Where string `sv:"where"`
	// ChunkSize caps records per snapshot file.
	ChunkSize int `sv:"chunk_size"`
}

// Query exports a table's rows into the destination and imports them back
// via COPY. With deleteFirst set it clears the table before importing, for
// tables the target system seeds on its own (the import would otherwise
// collide with auto-created rows).
type Query struct {
	name        string
	opts        QueryOptions
	deps        []string
	deleteFirst bool
}

// NewQuery creates a query strategy.
func NewQuery(name string, opts QueryOptions, deps []string) *Query {
	return &Query{name: name, opts: opts, deps: deps}
}

// NewDeleteFirst creates a query strategy that clears the table before
// importing.
func NewDeleteFirst(name string, opts QueryOptions, deps []string) *Query {
	return &Query{name: name, opts: opts, deps: deps, deleteFirst: true}
}

// Name implements Strategy.
func (q *Query) Name() string { return q.name }

// Capabilities implements Strategy.
func (q *Query) Capabilities() Capability { return CapExport | CapImport }

// ExtraDeps implements Strategy.
func (q *Query) ExtraDeps() []string { return q.deps }

// Export implements Exporter.
func (q *Query) Export(ctx context.Context, rc *RunContext, model ModelRef) error {
	logger := ctxlog.FromContext(ctx).With("type", model.Label, "strategy", q.name)

	if rc.NoUpdate {
		exists, err := rc.Dest.Exists(ctx, dataPrefix(model.Label))
		if err != nil {
			return err
		}
		if exists {
			logger.Info("Data already present, skipping export.")
			return nil
		}
	}

	records, err := q.fetch(ctx, rc, model)
	if err != nil {
		return err
	}
	logger.Debug("Fetched rows for export.", "rows", len(records))

	return writeChunks(ctx, rc.Dest, model.Label, records, q.opts.ChunkSize)
}

// fetch runs the export query and drains it into generic records.
func (q *Query) fetch(ctx context.Context, rc *RunContext, model ModelRef) ([]map[string]any, error) {
	sql := "SELECT * FROM " + pgx.Identifier{model.Table}.Sanitize()
	if q.opts.Where != "" {
		sql += " WHERE " + q.opts.Where
	}
	orderBy := q.opts.OrderBy
	if orderBy == "" {
		orderBy = model.PrimaryKey
	}
	sql += " ORDER BY " + pgx.Identifier{orderBy}.Sanitize()

	rows, err := rc.DB.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", model.Table, err)
	}
	return collectRecords(rows)
}

// Import implements Importer.
func (q *Query) Import(ctx context.Context, rc *RunContext, model ModelRef) error {
	logger := ctxlog.FromContext(ctx).With("type", model.Label, "strategy", q.name)

	records, err := readRecords(ctx, rc.Dest, model.Label)
	if err != nil {
		return err
	}
	if q.deleteFirst {
		logger.Debug("Clearing table before import.")
		sql := "DELETE FROM " + pgx.Identifier{model.Table}.Sanitize()
		if _, err := rc.DB.Exec(ctx, sql); err != nil {
			return fmt.Errorf("clearing %s: %w", model.Table, err)
		}
	}
	if len(records) == 0 {
		logger.Debug("No records to import.")
		return nil
	}

	columns := recordColumns(records[0])
	copyRows := make([][]any, 0, len(records))
	for _, rec := range records {
		values, err := recordValues(rec, columns)
		if err != nil {
			return fmt.Errorf("importing %s: %w", model.Label, err)
		}
		copyRows = append(copyRows, values)
	}

	copied, err := rc.DB.CopyFrom(ctx, pgx.Identifier{model.Table}, columns, pgx.CopyFromRows(copyRows))
	if err != nil {
		return fmt.Errorf("copying into %s: %w", model.Table, err)
	}
	logger.Debug("Imported rows.", "rows", copied)
	return nil
}
