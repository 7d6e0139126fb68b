// Package storagetest holds the behavior every storage.Storage backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecocart/internal/storage"
)

// Run exercises s against the storage.Storage contract. s must start empty.
func Run(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "ecocart_missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "ecocart_cart", `[{"id":"p1","qty":2}]`))

		v, ok, err := s.Get(ctx, "ecocart_cart")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":"p1","qty":2}]`, v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "ecocart_cart", `[]`))

		v, ok, err := s.Get(ctx, "ecocart_cart")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[]`, v)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "a", "1"))
		require.NoError(t, s.Set(ctx, "b", "2"))

		a, _, err := s.Get(ctx, "a")
		require.NoError(t, err)
		b, _, err := s.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "1", a)
		assert.Equal(t, "2", b)
	})

	t.Run("empty value is stored", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "blank", ""))

		v, ok, err := s.Get(ctx, "blank")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, v)
	})
}
