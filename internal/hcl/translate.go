package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/seedvault/internal/config"
	"github.com/vk/seedvault/internal/schema"
)

// translateModel converts an HCL-specific model block into the agnostic model.
func (l *Loader) translateModel(m *schema.Model) *config.ModelConfig {
	mc := &config.ModelConfig{
		Label:      m.Label,
		Table:      m.Table,
		PrimaryKey: m.PrimaryKey,
	}
	for _, s := range m.Strategies {
		mc.Strategies = append(mc.Strategies, &config.StrategyConfig{
			Name:      s.Name,
			Kind:      s.Kind,
			DependsOn: s.DependsOn,
			Options:   extractBodyAttributes(s.Options),
		})
	}
	return mc
}

// extractBodyAttributes lifts the attributes of an options block into a map
// of unevaluated expressions. Decoding happens later, against the
// kind-specific options struct.
func extractBodyAttributes(block *schema.OptionsBlock) map[string]hcl.Expression {
	if block == nil || block.Body == nil {
		return nil
	}
	attrs, _ := block.Body.JustAttributes()
	if len(attrs) == 0 {
		return nil
	}
	exprMap := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap
}
