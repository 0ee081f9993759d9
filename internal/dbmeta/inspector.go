package dbmeta

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/vk/seedvault/internal/metacache"
)

// Querier is the subset of pgxpool.Pool the inspector needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const columnsQuery = `
SELECT column_name, data_type, is_nullable = 'YES'
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

const primaryKeyQuery = `
SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = $1 AND tc.table_name = $2
ORDER BY kcu.ordinal_position`

const tablesQuery = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`

const foreignKeysQuery = `
SELECT tc.table_name, tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1
ORDER BY tc.table_name, tc.constraint_name`

// Inspector answers metadata questions about the connected database, caching
// every answer for the duration of one run.
type Inspector struct {
	db     Querier
	schema string
	tables *metacache.Cache[*TableInfo]
	fks    *metacache.Cache[map[string][]ForeignKey]
}

// NewInspector creates an inspector for the public schema.
func NewInspector(db Querier) (*Inspector, error) {
	tables, err := metacache.New[*TableInfo](metacache.DefaultSize)
	if err != nil {
		return nil, err
	}
	fks, err := metacache.New[map[string][]ForeignKey](1)
	if err != nil {
		return nil, err
	}
	return &Inspector{db: db, schema: "public", tables: tables, fks: fks}, nil
}

// Reset invalidates every cached answer. Called between runs.
func (i *Inspector) Reset() {
	i.tables.Reset()
	i.fks.Reset()
}

// TableNames lists every base table of the schema, sorted.
func (i *Inspector) TableNames(ctx context.Context) ([]string, error) {
	rows, err := i.db.Query(ctx, tablesQuery, i.schema)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	names, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var name string
		err := row.Scan(&name)
		return name, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	return names, nil
}

// Table returns the metadata for one table, read through the cache.
func (i *Inspector) Table(ctx context.Context, name string) (*TableInfo, error) {
	return i.tables.Get(name, func() (*TableInfo, error) {
		return i.loadTable(ctx, name)
	})
}

// Dependencies returns the tables that must be imported before the given
// table: its own foreign-key targets, plus the far side of every join table
// that references it, mirroring how many-to-many rows ride along with their
// owning side. The join edge is directional: only the join table's
// first-referenced side (by constraint order) owns it, so a pair of tables
// linked through a join table never depends on each other both ways.
func (i *Inspector) Dependencies(ctx context.Context, table string) ([]string, error) {
	info, err := i.Table(ctx, table)
	if err != nil {
		return nil, err
	}
	deps := info.ReferencedTables()

	all, err := i.allForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		seen[d] = struct{}{}
	}
	for joinTable, joinFKs := range all {
		if joinTable == table || !references(joinFKs, table) {
			continue
		}
		joinInfo, err := i.Table(ctx, joinTable)
		if err != nil {
			return nil, err
		}
		if !joinInfo.IsJoinTable() {
			continue
		}
		if joinFKs[0].RefTable != table {
			continue
		}
		for _, fk := range joinFKs {
			if fk.RefTable == table {
				continue
			}
			if _, ok := seen[fk.RefTable]; ok {
				continue
			}
			seen[fk.RefTable] = struct{}{}
			deps = append(deps, fk.RefTable)
		}
	}
	return deps, nil
}

func references(fks []ForeignKey, table string) bool {
	for _, fk := range fks {
		if fk.RefTable == table {
			return true
		}
	}
	return false
}

func (i *Inspector) loadTable(ctx context.Context, name string) (*TableInfo, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Inspecting table.", "table", name)

	info := &TableInfo{Name: name}

	rows, err := i.db.Query(ctx, columnsQuery, i.schema, name)
	if err != nil {
		return nil, fmt.Errorf("querying columns of %s: %w", name, err)
	}
	info.Columns, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Column, error) {
		var c Column
		err := row.Scan(&c.Name, &c.DataType, &c.Nullable)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", name, err)
	}
	if len(info.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found in schema %s", name, i.schema)
	}

	rows, err = i.db.Query(ctx, primaryKeyQuery, i.schema, name)
	if err != nil {
		return nil, fmt.Errorf("querying primary key of %s: %w", name, err)
	}
	info.PrimaryKey, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var col string
		err := row.Scan(&col)
		return col, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading primary key of %s: %w", name, err)
	}

	all, err := i.allForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	info.ForeignKeys = all[name]

	return info, nil
}

// allForeignKeys loads the schema's full foreign-key map in one query, cached
// for the run.
func (i *Inspector) allForeignKeys(ctx context.Context) (map[string][]ForeignKey, error) {
	return i.fks.Get("all", func() (map[string][]ForeignKey, error) {
		rows, err := i.db.Query(ctx, foreignKeysQuery, i.schema)
		if err != nil {
			return nil, fmt.Errorf("querying foreign keys: %w", err)
		}
		defer rows.Close()

		all := make(map[string][]ForeignKey)
		for rows.Next() {
			var table string
			var fk ForeignKey
			if err := rows.Scan(&table, &fk.Constraint, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
				return nil, fmt.Errorf("reading foreign keys: %w", err)
			}
			all[table] = append(all[table], fk)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading foreign keys: %w", err)
		}
		return all, nil
	})
}
