package registry

import (
	"context"

	"github.com/vk/seedvault/internal/config"
	"github.com/vk/seedvault/internal/strategy"
)

// RegisterBuiltins wires the standard strategy kinds into the registry.
func RegisterBuiltins(r *Registry) {
	r.RegisterKind("query", func(ctx context.Context, sc *config.StrategyConfig, conv config.Converter) (strategy.Strategy, error) {
		var opts strategy.QueryOptions
		if err := conv.DecodeOptions(ctx, &opts, sc.Options); err != nil {
			return nil, err
		}
		return strategy.NewQuery(sc.Name, opts, sc.DependsOn), nil
	})

	r.RegisterKind("delete_first", func(ctx context.Context, sc *config.StrategyConfig, conv config.Converter) (strategy.Strategy, error) {
		var opts strategy.QueryOptions
		if err := conv.DecodeOptions(ctx, &opts, sc.Options); err != nil {
			return nil, err
		}
		return strategy.NewDeleteFirst(sc.Name, opts, sc.DependsOn), nil
	})

	r.RegisterKind("related", func(ctx context.Context, sc *config.StrategyConfig, conv config.Converter) (strategy.Strategy, error) {
		var opts strategy.RelatedOptions
		if err := conv.DecodeOptions(ctx, &opts, sc.Options); err != nil {
			return nil, err
		}
		return strategy.NewRelated(sc.Name, opts, sc.DependsOn)
	})

	r.RegisterKind("skip", func(ctx context.Context, sc *config.StrategyConfig, conv config.Converter) (strategy.Strategy, error) {
		return strategy.NewSkip(sc.Name, sc.DependsOn), nil
	})
}
