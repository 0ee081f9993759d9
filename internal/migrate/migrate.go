// Package migrate snapshots and restores the schema-migration ledger
// alongside the data, so an imported database reports the same migration
// state as the one it was exported from. It also resets serial sequences
// after an import, since COPY bypasses the sequence counters.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/vk/seedvault/internal/storage"
)

// StateKey is where the migration ledger lives in a destination, next to the
// per-type data prefixes.
const StateKey = "migrations.json"

// LedgerTable is the database table holding the applied-migration ledger.
const LedgerTable = "schema_migrations"

const undefinedTableCode = "42P01"

// Entry is one applied migration.
type Entry struct {
	App     string    `json:"app"`
	Name    string    `json:"name"`
	Applied time.Time `json:"applied"`
}

// DB is the database surface the migration ledger needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ExportState writes the applied-migration ledger into the destination. A
// database without a migration table is not an error; the snapshot simply
// carries no ledger.
func ExportState(ctx context.Context, db DB, dest storage.Destination) error {
	logger := ctxlog.FromContext(ctx)

	rows, err := db.Query(ctx, "SELECT app, name, applied FROM "+LedgerTable+" ORDER BY id")
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
			logger.Warn("No migration table found, skipping migration state export.")
			return nil
		}
		return fmt.Errorf("reading migration state: %w", err)
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Entry])
	if err != nil {
		return fmt.Errorf("reading migration state: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding migration state: %w", err)
	}
	if err := dest.Write(ctx, StateKey, data); err != nil {
		return fmt.Errorf("writing migration state: %w", err)
	}
	logger.Debug("Exported migration state.", "entries", len(entries))
	return nil
}

// ImportState replaces the migration ledger with the snapshot's. A snapshot
// without a ledger leaves the target database's ledger untouched.
func ImportState(ctx context.Context, db DB, dest storage.Destination) error {
	logger := ctxlog.FromContext(ctx)

	data, err := dest.Read(ctx, StateKey)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Warn("Snapshot carries no migration state, leaving the ledger as is.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading migration state: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("invalid migration state: %w", err)
	}

	if _, err := db.Exec(ctx, "DELETE FROM "+LedgerTable); err != nil {
		// A target without a migration table gets the data but no ledger,
		// matching the export side's tolerance.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
			logger.Warn("No migration table found, skipping migration state import.")
			return nil
		}
		return fmt.Errorf("clearing migration state: %w", err)
	}
	for _, e := range entries {
		_, err := db.Exec(ctx, "INSERT INTO "+LedgerTable+" (app, name, applied) VALUES ($1, $2, $3)", e.App, e.Name, e.Applied)
		if err != nil {
			return fmt.Errorf("restoring migration %s.%s: %w", e.App, e.Name, err)
		}
	}
	logger.Debug("Imported migration state.", "entries", len(entries))
	return nil
}

// ResetSequences realigns a table's serial sequence with its data. COPY
// inserts explicit primary keys, so without this the next generated key
// would collide with an imported row. Tables without a serial sequence are
// left alone.
func ResetSequences(ctx context.Context, db DB, table, pkColumn string) error {
	sql := fmt.Sprintf(
		"SELECT setval(seq, coalesce((SELECT max(%s) FROM %s), 0) + 1, false) FROM pg_get_serial_sequence($1, $2) AS seq WHERE seq IS NOT NULL",
		pgx.Identifier{pkColumn}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
	)
	if _, err := db.Exec(ctx, sql, table, pkColumn); err != nil {
		return fmt.Errorf("resetting sequence of %s: %w", table, err)
	}
	return nil
}
