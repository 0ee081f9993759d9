package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
)

// Loader abstracts the configuration format. The app depends on this
// interface so the HCL implementation stays swappable and tests can inject
// pre-built models.
type Loader interface {
	// Load reads every configuration file under the given paths and merges
	// them into a single model, preserving file and block order.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter decodes the unevaluated option expressions captured in a
// StrategyConfig into a kind-specific Go struct.
type Converter interface {
	DecodeOptions(ctx context.Context, target any, opts map[string]hcl.Expression) error
}
