package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHandler satisfies Handler for scheduler tests.
type stubHandler string

func (s stubHandler) Name() string { return string(s) }

func unit(t EntityType, handler string) WorkUnit {
	return WorkUnit{Type: t, Handler: stubHandler(handler)}
}

func TestBuild(t *testing.T) {
	t.Run("unions declared dependencies per type", func(t *testing.T) {
		units := []WorkUnit{
			unit("auth.User", "default"),
			unit("auth.Group", "default"),
			unit("blog.Post", "default"),
		}
		depends := func(typ EntityType) []EntityType {
			switch typ {
			case "blog.Post":
				return []EntityType{"auth.User", "auth.Group"}
			case "auth.User":
				return []EntityType{"auth.Group"}
			}
			return nil
		}

		g := Build(units, depends)

		require.Len(t, g, 3)
		assert.Equal(t, NewTypeSet("auth.User", "auth.Group"), g["blog.Post"])
		assert.Equal(t, NewTypeSet("auth.Group"), g["auth.User"])
		assert.Empty(t, g["auth.Group"])
	})

	t.Run("drops self references", func(t *testing.T) {
		units := []WorkUnit{unit("tree.Node", "default")}
		depends := func(EntityType) []EntityType {
			return []EntityType{"tree.Node"}
		}

		g := Build(units, depends)
		assert.Empty(t, g["tree.Node"])
	})

	t.Run("drops dependencies outside the work set", func(t *testing.T) {
		units := []WorkUnit{unit("blog.Post", "default")}
		depends := func(EntityType) []EntityType {
			// auth.User is not scheduled this run, so it counts as satisfied.
			return []EntityType{"auth.User"}
		}

		g := Build(units, depends)
		assert.Empty(t, g["blog.Post"])
	})

	t.Run("multiple handlers share one node", func(t *testing.T) {
		units := []WorkUnit{
			unit("auth.User", "default"),
			unit("auth.User", "anonymized"),
		}

		g := Build(units, func(EntityType) []EntityType { return nil })
		require.Len(t, g, 1)
		assert.Contains(t, g, EntityType("auth.User"))
	})

	t.Run("empty work set builds an empty graph", func(t *testing.T) {
		g := Build(nil, func(EntityType) []EntityType { return nil })
		assert.Empty(t, g)
	})
}
