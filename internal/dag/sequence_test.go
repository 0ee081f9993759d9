package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// position returns the index of the first unit of the given type.
func position(t *testing.T, ordered []WorkUnit, typ EntityType) int {
	t.Helper()
	for i, u := range ordered {
		if u.Type == typ {
			return i
		}
	}
	t.Fatalf("type %s not found in ordered units", typ)
	return -1
}

func TestSequence(t *testing.T) {
	t.Run("dependencies come strictly before dependents", func(t *testing.T) {
		units := []WorkUnit{
			unit("blog.Post", "default"),
			unit("auth.User", "default"),
			unit("auth.Group", "default"),
			unit("blog.Comment", "default"),
		}
		graph := Graph{
			"blog.Post":    NewTypeSet("auth.User"),
			"blog.Comment": NewTypeSet("blog.Post", "auth.User"),
			"auth.User":    NewTypeSet("auth.Group"),
			"auth.Group":   NewTypeSet(),
		}

		ordered, returned, err := Sequence(units, graph)
		require.NoError(t, err)
		require.Len(t, ordered, 4)
		assert.Equal(t, graph, returned)

		for typ, deps := range graph {
			for dep := range deps {
				assert.Less(t, position(t, ordered, dep), position(t, ordered, typ),
					"%s must precede %s", dep, typ)
			}
		}
	})

	t.Run("deterministic for a fixed input ordering", func(t *testing.T) {
		units := []WorkUnit{
			unit("a.A", "default"),
			unit("b.B", "default"),
			unit("c.C", "default"),
			unit("d.D", "default"),
		}
		graph := Graph{
			"a.A": NewTypeSet(),
			"b.B": NewTypeSet(),
			"c.C": NewTypeSet("a.A"),
			"d.D": NewTypeSet("b.B"),
		}

		first, _, err := Sequence(units, graph)
		require.NoError(t, err)
		second, _, err := Sequence(units, graph)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("independent types keep declaration order", func(t *testing.T) {
		units := []WorkUnit{
			unit("c.C", "default"),
			unit("a.A", "default"),
			unit("b.B", "default"),
		}
		graph := Graph{
			"a.A": NewTypeSet(),
			"b.B": NewTypeSet(),
			"c.C": NewTypeSet(),
		}

		ordered, _, err := Sequence(units, graph)
		require.NoError(t, err)
		assert.Equal(t, []WorkUnit{
			unit("c.C", "default"),
			unit("a.A", "default"),
			unit("b.B", "default"),
		}, ordered)
	})

	t.Run("per-type handler order is preserved", func(t *testing.T) {
		units := []WorkUnit{
			unit("auth.User", "default"),
			unit("auth.User", "anonymized"),
			unit("auth.Group", "default"),
		}
		graph := Graph{
			"auth.User":  NewTypeSet("auth.Group"),
			"auth.Group": NewTypeSet(),
		}

		ordered, _, err := Sequence(units, graph)
		require.NoError(t, err)
		assert.Equal(t, []WorkUnit{
			unit("auth.Group", "default"),
			unit("auth.User", "default"),
			unit("auth.User", "anonymized"),
		}, ordered)
	})

	t.Run("two-node cycle is reported with both types", func(t *testing.T) {
		units := []WorkUnit{
			unit("x.X", "default"),
			unit("y.Y", "default"),
		}
		graph := Graph{
			"x.X": NewTypeSet("y.Y"),
			"y.Y": NewTypeSet("x.X"),
		}

		_, _, err := Sequence(units, graph)
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []EntityType{"x.X", "y.Y"}, cycleErr.Types)
		assert.Contains(t, err.Error(), "x.X, y.Y")
	})

	t.Run("cycle report includes types feeding the cycle", func(t *testing.T) {
		units := []WorkUnit{
			unit("a.A", "default"),
			unit("b.B", "default"),
			unit("c.C", "default"),
		}
		// a<->b cycle; c depends on the cycle and can never be peeled either.
		graph := Graph{
			"a.A": NewTypeSet("b.B"),
			"b.B": NewTypeSet("a.A"),
			"c.C": NewTypeSet("a.A"),
		}

		_, _, err := Sequence(units, graph)
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []EntityType{"a.A", "b.B", "c.C"}, cycleErr.Types)
	})

	t.Run("empty work set sequences to empty", func(t *testing.T) {
		ordered, _, err := Sequence(nil, Graph{})
		require.NoError(t, err)
		assert.Empty(t, ordered)
	})
}
