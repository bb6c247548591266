package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*DirStore)(nil)
)

func TestInMemoryStore_SaveOpenIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	data := []byte("hello")
	store.Save("a.pdf", data)
	data[0] = 'H'

	rc, err := store.Open(ctx, "a.pdf")
	require.NoError(t, err)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	loc, err := store.Locate(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "memory://a.pdf", loc)

	store.Delete("a.pdf")
	_, err = store.Locate(ctx, "a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, core.ErrAssetUnavailable)
}

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "assets")

	store, err := NewDirStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	loc, err := store.Locate(ctx, "simulacao.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, filepath.Join(store.Root(), "simulacao.pdf"), loc)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "simulacao.pdf"), []byte("%PDF"), 0o644))

	loc, err = store.Locate(ctx, "simulacao.pdf")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(loc))

	rc, err := store.Open(ctx, "simulacao.pdf")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))

	_, err = store.Locate(ctx, "../secret")
	assert.ErrorIs(t, err, ErrNotFound)
}
