package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoProducts = `[
  {"id": "w1", "name": "Loofah", "price": 3.5, "category": "Bathroom"},
  {"id": "w2", "name": "Jute Twine", "price": 2.25, "category": "Garden"}
]`

func startWatcher(t *testing.T, c *Catalog, path string) <-chan error {
	t.Helper()
	reloads := make(chan error, 8)
	w, err := NewWatcher(c, path, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithDebounce(20*time.Millisecond),
		WithReloadHook(func(err error) { reloads <- err }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// Give fsnotify a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	return reloads
}

func waitReload(t *testing.T, reloads <-chan error) error {
	t.Helper()
	select {
	case err := <-reloads:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for catalog reload")
		return nil
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"w0","name":"Old","price":1}]`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	reloads := startWatcher(t, c, path)

	require.NoError(t, os.WriteFile(path, []byte(twoProducts), 0o600))

	require.NoError(t, waitReload(t, reloads))
	assert.Equal(t, []string{"w1", "w2"}, ids(c.All()))
}

func TestWatcher_KeepsProductsOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(twoProducts), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	reloads := startWatcher(t, c, path)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":`), 0o600))

	assert.Error(t, waitReload(t, reloads))
	assert.Equal(t, []string{"w1", "w2"}, ids(c.All()))
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(twoProducts), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	reloads := startWatcher(t, c, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o600))

	select {
	case err := <-reloads:
		t.Fatalf("unexpected reload: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	c := newTestCatalog(t)
	w, err := NewWatcher(c, filepath.Join(t.TempDir(), "nope", "catalog.json"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	err = w.Run(context.Background())
	assert.ErrorContains(t, err, "watch")
}
