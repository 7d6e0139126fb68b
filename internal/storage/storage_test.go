package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecocart/internal/storage"
	"github.com/utafrali/ecocart/internal/storage/storagetest"
)

func TestMemory_Contract(t *testing.T) {
	storagetest.Run(t, storage.NewMemory())
}

func TestWithPrefix_Contract(t *testing.T) {
	storagetest.Run(t, storage.WithPrefix(storage.NewMemory(), "session:abc:"))
}

func TestWithPrefix_IsolatesScopes(t *testing.T) {
	ctx := context.Background()
	base := storage.NewMemory()
	a := storage.WithPrefix(base, "session:a:")
	b := storage.WithPrefix(base, "session:b:")

	require.NoError(t, a.Set(ctx, "ecocart_cart", "A"))
	require.NoError(t, b.Set(ctx, "ecocart_cart", "B"))

	va, _, _ := a.Get(ctx, "ecocart_cart")
	vb, _, _ := b.Get(ctx, "ecocart_cart")
	assert.Equal(t, "A", va)
	assert.Equal(t, "B", vb)

	raw, ok, _ := base.Get(ctx, "session:a:ecocart_cart")
	assert.True(t, ok)
	assert.Equal(t, "A", raw)
	assert.Equal(t, 2, base.Len())
}

func TestWithPrefix_EmptyPrefixReturnsSame(t *testing.T) {
	base := storage.NewMemory()
	assert.Same(t, base, storage.WithPrefix(base, "").(*storage.Memory))
}

type pingStore struct {
	*storage.Memory
	err error
}

func (p *pingStore) Ping(context.Context) error { return p.err }

func TestPing(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, storage.Ping(ctx, storage.NewMemory()))

	down := &pingStore{Memory: storage.NewMemory(), err: errors.New("down")}
	assert.EqualError(t, storage.Ping(ctx, down), "down")
	assert.EqualError(t, storage.Ping(ctx, storage.WithPrefix(down, "x:")), "down")
}
