package internal

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "github.com/lychee-technology/tablebridge"
)

func TestLocalObjectStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a/b.txt", []byte("hello")))

	rc, meta, err := store.Get(ctx, "a/b.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), meta.Size)
}

func TestLocalObjectStore_HeadMissingReturnsNotFound(t *testing.T) {
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Head(context.Background(), "missing.txt")
	require.Error(t, err)
	assert.True(t, tb.IsKind(err, tb.ErrNotFound))
}

func TestLocalObjectStore_GetRange(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "file.txt", []byte("0123456789")))

	b, err := store.GetRange(ctx, "file.txt", tb.ByteRange{Offset: 2, Length: 4})
	require.NoError(t, err)
	assert.Equal(t, "2345", string(b))
}

func TestLocalObjectStore_ListWithDelimiterSeparatesDirsAndFiles(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "region=us/1.parquet", []byte("x")))
	require.NoError(t, store.Put(ctx, "_delta_log/0.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "README.txt", []byte("hi")))

	result, err := store.ListWithDelimiter(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"region=us/", "_delta_log/"}, result.CommonPrefixes)
	require.Len(t, result.Objects, 1)
	assert.Equal(t, "README.txt", result.Objects[0].Path)
}

func TestLocalObjectStore_CopyIfNotExistsFailsWhenTargetPresent(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "a.txt", []byte("a")))
	require.NoError(t, store.Put(ctx, "b.txt", []byte("b")))

	err = store.CopyIfNotExists(ctx, "a.txt", "b.txt")
	require.Error(t, err)
	assert.True(t, tb.IsKind(err, tb.ErrConflict))
}

func TestLocalObjectStore_RenameMovesObject(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "a.txt", []byte("a")))

	require.NoError(t, store.Rename(ctx, "a.txt", "nested/a.txt"))

	_, err = store.Head(ctx, "a.txt")
	assert.True(t, tb.IsKind(err, tb.ErrNotFound))
	meta, err := store.Head(ctx, "nested/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "nested/a.txt", meta.Path)
}

func TestLocalObjectStore_ListIsSortedAndRecursive(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "b/2.parquet", []byte("x")))
	require.NoError(t, store.Put(ctx, "a/1.parquet", []byte("x")))

	objects, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a/1.parquet", objects[0].Path)
	assert.Equal(t, "b/2.parquet", objects[1].Path)
}
