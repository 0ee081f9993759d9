package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/vk/seedvault/internal/storage"
)

// DefaultChunkSize is how many records go into one snapshot file.
const DefaultChunkSize = 1000

// dataPrefix is the destination keyspace of one entity type.
func dataPrefix(label string) string {
	return label + "/"
}

// chunkKey names the nth data file of an entity type.
func chunkKey(label string, n int) string {
	return fmt.Sprintf("%s/%04d.json", label, n)
}

// collectRecords drains a result set into generic records, one map per row.
func collectRecords(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var records []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return records, nil
}

// writeChunks writes records into numbered files under the type's prefix.
func writeChunks(ctx context.Context, dest storage.Destination, label string, records []map[string]any, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	for n := 0; n*chunkSize < len(records) || n == 0; n++ {
		start := n * chunkSize
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		if chunk == nil {
			chunk = []map[string]any{}
		}
		data, err := json.MarshalIndent(chunk, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding records of %s: %w", label, err)
		}
		if err := dest.Write(ctx, chunkKey(label, n+1), data); err != nil {
			return fmt.Errorf("writing records of %s: %w", label, err)
		}
		if end == len(records) {
			break
		}
	}
	return nil
}

// readRecords loads every data file under the type's prefix, in key order.
// Numbers decode as json.Number so integer primary keys survive the
// round-trip without turning into floats.
func readRecords(ctx context.Context, dest storage.Destination, label string) ([]map[string]any, error) {
	keys, err := dest.List(ctx, dataPrefix(label))
	if err != nil {
		return nil, fmt.Errorf("listing records of %s: %w", label, err)
	}

	var records []map[string]any
	for _, key := range keys {
		data, err := dest.Read(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var chunk []map[string]any
		if err := dec.Decode(&chunk); err != nil {
			return nil, fmt.Errorf("invalid snapshot file %s: %w", key, err)
		}
		records = append(records, chunk...)
	}
	return records, nil
}

// recordColumns returns the record's column names in a stable order.
func recordColumns(rec map[string]any) []string {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// recordValues extracts the values for the given columns, normalizing
// json.Number into int64 where possible and float64 otherwise.
func recordValues(rec map[string]any, columns []string) ([]any, error) {
	values := make([]any, len(columns))
	for i, col := range columns {
		v, ok := rec[col]
		if !ok {
			return nil, fmt.Errorf("record lacks column %q", col)
		}
		if num, isNum := v.(json.Number); isNum {
			if n, err := num.Int64(); err == nil {
				values[i] = n
				continue
			}
			f, err := num.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number %q in column %q: %w", num, col, err)
			}
			values[i] = f
			continue
		}
		values[i] = v
	}
	return values, nil
}
