package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "jwt_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "jwt_token", "t1"))
	require.NoError(t, store.Set(ctx, "current_user", `{"id":7}`))

	value, ok, err := store.Get(ctx, "jwt_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", value)

	require.NoError(t, store.Set(ctx, "jwt_token", "t2"))
	value, _, err = store.Get(ctx, "jwt_token")
	require.NoError(t, err)
	assert.Equal(t, "t2", value)

	require.NoError(t, store.Remove(ctx, "jwt_token"))
	require.NoError(t, store.Remove(ctx, "jwt_token"))
	_, ok, err = store.Get(ctx, "jwt_token")
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err = store.Get(ctx, "current_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":7}`, value)

	assert.ErrorIs(t, store.Set(ctx, "../escape", "x"), ErrInvalidKey)
	_, _, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, store)

	_, err = os.Stat(filepath.Join(dir, "current_user.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "jwt_token", "persisted"))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	value, ok, err := second.Get(ctx, "jwt_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", value)
}

func TestNewFileStoreRejectsEmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestRedisStoreUnreachableReturnsErrors(t *testing.T) {
	store := NewRedisStore(RedisOptions{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = store.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, ok, err := store.Get(ctx, "jwt_token")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, store.Set(ctx, "jwt_token", "t1"))
	assert.Error(t, store.Remove(ctx, "jwt_token"))
	assert.ErrorIs(t, store.Set(ctx, "", "t1"), ErrInvalidKey)
}
