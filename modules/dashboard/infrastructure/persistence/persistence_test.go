package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legaldesk/modules/dashboard/domain/layout"
)

func exerciseStore(t *testing.T, store layout.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "u1")
	require.ErrorIs(t, err, layout.ErrNotFound)

	l := layout.Default("u1")
	l.UpdatedAt = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, l))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, l, got)

	_, err = store.Load(ctx, "u2")
	require.ErrorIs(t, err, layout.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "u1"))
	require.NoError(t, store.Delete(ctx, "u1"))
	_, err = store.Load(ctx, "u1")
	require.ErrorIs(t, err, layout.ErrNotFound)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestFileStore_UserIDIsNotAPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	l := layout.Default("../escape")
	require.NoError(t, store.Save(context.Background(), l))
	got, err := store.Load(context.Background(), "../escape")
	require.NoError(t, err)
	require.Equal(t, "../escape", got.UserID)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(client))

	require.NoError(t, NewRedisStore(client).Save(context.Background(), layout.Default("u9")))
	require.True(t, mr.Exists(keyPrefix+"u9"))
}
