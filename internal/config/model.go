package config

import "github.com/hashicorp/hcl/v2"

// Model is the unified, format-agnostic representation of the snapshot
// configuration: every entity type to export or import, in declaration
// order, with its strategies.
type Model struct {
	Models []*ModelConfig
}

// ModelConfig describes one configured entity type.
type ModelConfig struct {
	// Label is the "app.Model" entity-type identifier.
	Label string
	// Table is the backing table name. Empty means "derive from the label".
	Table string
	// PrimaryKey is the primary key column. Empty means "id".
	PrimaryKey string
	Strategies []*StrategyConfig
}

// StrategyConfig describes one strategy declared on a model, in declaration
// order.
type StrategyConfig struct {
	Name      string
	Kind      string
	DependsOn []string
	// Options holds the unevaluated kind-specific option expressions. The
	// strategy factory decodes them through a Converter once it knows the
	// target struct.
	Options map[string]hcl.Expression
}
