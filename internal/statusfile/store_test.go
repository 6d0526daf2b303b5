package statusfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_WriteReadExists(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	store := NewFileStore(fsys, "/probe/liveness.txt")

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Write(ctx, "first"))
	require.NoError(t, store.Write(ctx, "second"))

	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", content)

	entries, err := afero.ReadDir(fsys, "/probe")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "liveness.txt", entries[0].Name())
}

func TestFileStore_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(afero.NewMemMapFs(), "/probe/liveness.txt")

	require.NoError(t, store.Remove(ctx))

	require.NoError(t, store.Write(ctx, "alive"))
	require.NoError(t, store.Remove(ctx))
	require.NoError(t, store.Remove(ctx))

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_RelativePath(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "./liveness.txt")

	assert.Equal(t, "liveness.txt", store.Path())
	require.NoError(t, store.Write(context.Background(), "alive"))

	content, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alive", content)
}

func TestFileStore_OsFilesystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liveness.txt")
	store := NewFileStore(nil, path)

	require.NoError(t, store.Write(context.Background(), "on disk"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, filePerm, info.Mode().Perm())
}

func TestFileStore_WriteFailsOnReadOnlyFs(t *testing.T) {
	store := NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/probe/liveness.txt")

	assert.Error(t, store.Write(context.Background(), "alive"))
}

func TestFileStore_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileStore(afero.NewMemMapFs(), "/probe/liveness.txt")

	assert.ErrorIs(t, store.Write(ctx, "alive"), context.Canceled)
	assert.ErrorIs(t, store.Remove(ctx), context.Canceled)
	_, err := store.Exists(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
