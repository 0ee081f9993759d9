package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderLoad(t *testing.T) {
	t.Run("parses models with strategies and options", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "snapshot.hcl", `
model "auth.Group" {
  strategy "default" {
    kind = "query"
  }
}

model "auth.User" {
  table       = "users"
  primary_key = "user_id"

  strategy "default" {
    kind       = "query"
    depends_on = ["auth.Group"]

    options {
      order_by = "user_id"
    }
  }

  strategy "audit" {
    kind = "skip"
  }
}
`)

		model, converter, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)
		require.NotNil(t, converter)
		require.Len(t, model.Models, 2)

		group := model.Models[0]
		assert.Equal(t, "auth.Group", group.Label)
		assert.Empty(t, group.Table)
		require.Len(t, group.Strategies, 1)
		assert.Equal(t, "query", group.Strategies[0].Kind)

		user := model.Models[1]
		assert.Equal(t, "auth.User", user.Label)
		assert.Equal(t, "users", user.Table)
		assert.Equal(t, "user_id", user.PrimaryKey)
		require.Len(t, user.Strategies, 2)
		assert.Equal(t, []string{"auth.Group"}, user.Strategies[0].DependsOn)
		assert.Contains(t, user.Strategies[0].Options, "order_by")
		assert.Equal(t, "audit", user.Strategies[1].Name)
	})

	t.Run("rejects duplicate model labels across files", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "a.hcl", `
model "auth.User" {
  strategy "default" { kind = "query" }
}
`)
		writeConfig(t, dir, "b.hcl", `
model "auth.User" {
  strategy "default" { kind = "query" }
}
`)

		_, _, err := NewLoader().Load(context.Background(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `model "auth.User" declared`)
	})

	t.Run("missing paths are skipped", func(t *testing.T) {
		model, _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, model.Models)
	})

	t.Run("invalid HCL is rejected", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "bad.hcl", `model "x" {`)

		_, _, err := NewLoader().Load(context.Background(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})
}

func TestConverterDecodeOptions(t *testing.T) {
	type queryOptions struct {
		OrderBy string   `sv:"order_by"`
		Columns []string `sv:"columns"`
		Limit   int      `sv:"limit"`
	}

	t.Run("decodes primitives and collections", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "snapshot.hcl", `
model "auth.User" {
  strategy "default" {
    kind = "query"
    options {
      order_by = "id"
      columns  = ["id", "email"]
      limit    = 100
    }
  }
}
`)
		model, converter, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)

		var opts queryOptions
		err = converter.DecodeOptions(context.Background(), &opts, model.Models[0].Strategies[0].Options)
		require.NoError(t, err)
		assert.Equal(t, "id", opts.OrderBy)
		assert.Equal(t, []string{"id", "email"}, opts.Columns)
		assert.Equal(t, 100, opts.Limit)
	})

	t.Run("unknown option is rejected", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "snapshot.hcl", `
model "auth.User" {
  strategy "default" {
    kind = "query"
    options {
      order_byy = "id"
    }
  }
}
`)
		model, converter, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)

		var opts queryOptions
		err = converter.DecodeOptions(context.Background(), &opts, model.Models[0].Strategies[0].Options)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown option "order_byy"`)
	})
}
