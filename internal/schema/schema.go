// Package schema holds the HCL-tagged structs that snapshot configuration
// files decode into. Translation into the format-agnostic config model lives
// in the hcl package; nothing outside configuration loading should import
// this package.
package schema

import "github.com/hashicorp/hcl/v2"

// OptionsBlock is the raw body of a strategy's `options` block. Its
// attributes are kind-specific, so decoding is deferred until the strategy
// factory knows which struct to decode into.
type OptionsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Strategy represents a `strategy` block inside a model block. A model may
// declare several; their order in the file is their execution order within
// the model's dependency position.
type Strategy struct {
	Name      string        `hcl:"name,label"`
	Kind      string        `hcl:"kind"`
	DependsOn []string      `hcl:"depends_on,optional"`
	Options   *OptionsBlock `hcl:"options,block"`
}

// Model represents a `model` block: one entity type selected for the
// snapshot, labeled "app.Model".
type Model struct {
	Label      string      `hcl:"label,label"`
	Table      string      `hcl:"table,optional"`
	PrimaryKey string      `hcl:"primary_key,optional"`
	Strategies []*Strategy `hcl:"strategy,block"`
}

// Root is the top-level structure of a snapshot configuration file.
type Root struct {
	Models []*Model `hcl:"model,block"`
	Body   hcl.Body `hcl:",remain"`
}
