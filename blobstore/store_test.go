package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	data := []byte(",,Shape\nA,B,0.5\n")
	require.NoError(t, store.Put(ctx, "scores/shape.csv", data))

	w, err := store.Create(ctx, "records.desc")
	require.NoError(t, err)
	_, err = w.Write([]byte("A; (); (); Image: a.png\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "scores/shape.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Shape", string(buf))

	rc, err := blob.ReadRange(ctx, 8, 3)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "A,B", string(part))
	require.NoError(t, blob.Close())

	got, err := ReadAll(ctx, store, "scores/shape.csv")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"records.desc", "scores/shape.csv"}, names)

	names, err = store.List(ctx, "scores/")
	require.NoError(t, err)
	assert.Equal(t, []string{"scores/shape.csv"}, names)

	require.NoError(t, store.Delete(ctx, "scores/shape.csv"))
	require.NoError(t, store.Delete(ctx, "scores/shape.csv"))

	_, err = store.Open(ctx, "scores/shape.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = ReadAll(ctx, store, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	testStore(t, NewLocalStore(dir))

	_, err := os.Stat(filepath.Join(dir, "records.desc"))
	require.NoError(t, err)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "x", data))
	data[0] = 'z'

	got, err := ReadAll(ctx, store, "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, store.Put(ctx, "empty", nil))
	got, err = ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadAll(ctx, NewMemoryStore(), "x")
	assert.ErrorIs(t, err, context.Canceled)
}
