// Package registry maps strategy kinds declared in configuration to their
// implementations. Kinds are registered once at startup; building a strategy
// from its configuration is a pure lookup plus option decoding, so the whole
// work set can be validated before any database or destination I/O happens.
package registry

import (
	"context"
	"fmt"

	"github.com/vk/seedvault/internal/config"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/vk/seedvault/internal/strategy"
)

// Factory builds one strategy from its configuration, decoding the
// kind-specific options through the given converter.
type Factory func(ctx context.Context, sc *config.StrategyConfig, conv config.Converter) (strategy.Strategy, error)

// Registry holds the known strategy kinds.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterKind adds a strategy kind. Registering the same kind twice is a
// programmer error and panics, mirroring how duplicate handler registration
// is treated elsewhere at startup.
func (r *Registry) RegisterKind(kind string, factory Factory) {
	if _, ok := r.factories[kind]; ok {
		panic(fmt.Sprintf("strategy kind %q registered twice", kind))
	}
	r.factories[kind] = factory
}

// Kinds returns the registered kind names, for diagnostics.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// Build instantiates the strategy a configuration block declares.
func (r *Registry) Build(ctx context.Context, sc *config.StrategyConfig, conv config.Converter) (strategy.Strategy, error) {
	factory, ok := r.factories[sc.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown strategy kind %q for strategy %q", sc.Kind, sc.Name)
	}
	strat, err := factory(ctx, sc, conv)
	if err != nil {
		return nil, fmt.Errorf("building strategy %q (%s): %w", sc.Name, sc.Kind, err)
	}
	return strat, nil
}

// Validate builds every declared strategy once, surfacing unknown kinds and
// bad options before a run starts. Every model must declare at least one
// strategy.
func (r *Registry) Validate(ctx context.Context, model *config.Model, conv config.Converter) error {
	logger := ctxlog.FromContext(ctx)
	for _, mc := range model.Models {
		if len(mc.Strategies) == 0 {
			return fmt.Errorf("model %q declares no strategies", mc.Label)
		}
		for _, sc := range mc.Strategies {
			if _, err := r.Build(ctx, sc, conv); err != nil {
				return fmt.Errorf("model %q: %w", mc.Label, err)
			}
		}
		logger.Debug("Validated model strategies.", "model", mc.Label, "strategies", len(mc.Strategies))
	}
	return nil
}
