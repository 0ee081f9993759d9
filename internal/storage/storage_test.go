package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// destinations under test share one behavioral contract.
func testDestination(t *testing.T, dest Destination) {
	ctx := context.Background()

	t.Run("read of a missing key returns ErrNotFound", func(t *testing.T) {
		_, err := dest.Read(ctx, "auth.User/0001.json")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("write then read round-trips", func(t *testing.T) {
		require.NoError(t, dest.Write(ctx, "auth.User/0001.json", []byte(`[{"id":1}]`)))
		data, err := dest.Read(ctx, "auth.User/0001.json")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, string(data))
	})

	t.Run("list filters by prefix and sorts", func(t *testing.T) {
		require.NoError(t, dest.Write(ctx, "auth.User/0002.json", []byte(`[]`)))
		require.NoError(t, dest.Write(ctx, "blog.Post/0001.json", []byte(`[]`)))

		keys, err := dest.List(ctx, "auth.User/")
		require.NoError(t, err)
		assert.Equal(t, []string{"auth.User/0001.json", "auth.User/0002.json"}, keys)
	})

	t.Run("exists reports prefix occupancy", func(t *testing.T) {
		ok, err := dest.Exists(ctx, "auth.User/")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = dest.Exists(ctx, "auth.Group/")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLocalDestination(t *testing.T) {
	dest, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	testDestination(t, dest)
}

func TestMemoryDestination(t *testing.T) {
	testDestination(t, NewMemory())
}
