package storage_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecocart/internal/storage"
	"github.com/utafrali/ecocart/internal/storage/storagetest"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// flakyStore fails every call while failing is set.
type flakyStore struct {
	*storage.Memory
	failing bool
	calls   int
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.calls++
	if f.failing {
		return "", false, errors.New("backend down")
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.calls++
	if f.failing {
		return errors.New("backend down")
	}
	return f.Memory.Set(ctx, key, value)
}

func testBreakerConfig(name string) storage.BreakerConfig {
	cfg := storage.DefaultBreakerConfig(name)
	cfg.MinRequests = 3
	cfg.Timeout = time.Hour
	return cfg
}

func TestBreaker_Contract(t *testing.T) {
	storagetest.Run(t, storage.NewBreaker(storage.NewMemory(), testBreakerConfig("contract"), newTestLogger()))
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{Memory: storage.NewMemory(), failing: true}
	b := storage.NewBreaker(backend, testBreakerConfig("opens"), newTestLogger())

	for i := 0; i < 3; i++ {
		err := b.Set(ctx, "k", "v")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend down")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	callsBefore := backend.calls
	_, _, err := b.Get(ctx, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, backend.calls, "open breaker must not reach the backend")
}

func TestBreaker_MissingKeyIsSuccess(t *testing.T) {
	ctx := context.Background()
	b := storage.NewBreaker(storage.NewMemory(), testBreakerConfig("missing"), newTestLogger())

	for i := 0; i < 10; i++ {
		_, ok, err := b.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_PingBypassesBreaker(t *testing.T) {
	down := &pingStore{Memory: storage.NewMemory(), err: errors.New("down")}
	b := storage.NewBreaker(down, testBreakerConfig("ping"), newTestLogger())

	assert.EqualError(t, b.Ping(context.Background()), "down")
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
