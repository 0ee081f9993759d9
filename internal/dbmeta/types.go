// Package dbmeta reads relational metadata out of Postgres: which tables
// reference which, and which tables are pure join tables. The scheduler
// consumes this as opaque sets of entity types; the queries run against
// information_schema and are cached per run.
package dbmeta

import "strings"

// Column describes one column of a table.
type Column struct {
	Name     string
	DataType string
	Nullable bool
}

// ForeignKey describes one foreign key column of a table.
type ForeignKey struct {
	Constraint string
	Column     string
	RefTable   string
	RefColumn  string
}

// TableInfo is the cached metadata for one table.
type TableInfo struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// ReferencedTables returns the distinct tables this table references via
// foreign keys, excluding itself.
func (t *TableInfo) ReferencedTables() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == t.Name {
			continue
		}
		if _, ok := seen[fk.RefTable]; ok {
			continue
		}
		seen[fk.RefTable] = struct{}{}
		out = append(out, fk.RefTable)
	}
	return out
}

// IsJoinTable reports whether the table looks like an auto-created
// many-to-many join table: exactly two foreign keys to two distinct tables,
// and no payload columns beyond the primary key and the FK columns.
func (t *TableInfo) IsJoinTable() bool {
	if len(t.ForeignKeys) != 2 {
		return false
	}
	if t.ForeignKeys[0].RefTable == t.ForeignKeys[1].RefTable {
		return false
	}

	keyCols := make(map[string]struct{})
	for _, pk := range t.PrimaryKey {
		keyCols[pk] = struct{}{}
	}
	for _, fk := range t.ForeignKeys {
		keyCols[fk.Column] = struct{}{}
	}
	for _, col := range t.Columns {
		if _, ok := keyCols[col.Name]; !ok {
			return false
		}
	}
	return true
}

// DeriveTableName maps an "app.Model" entity-type label onto its default
// table name, app_model, matching the common ORM convention.
func DeriveTableName(label string) string {
	return strings.ToLower(strings.ReplaceAll(label, ".", "_"))
}
