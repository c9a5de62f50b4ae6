package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ganot/verdant/internal/config"
)

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "verdant.db")
	store, err := Open(config.StoreConfig{
		Backend: config.BackendSQLite,
		SQLite:  config.SQLiteConfig{Path: path},
	}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "v"))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
	require.FileExists(t, path)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := Open(config.StoreConfig{
		Backend: config.BackendRedis,
		Redis:   config.RedisConfig{URL: "redis://" + mr.Addr()},
	}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Ping(context.Background()))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(config.StoreConfig{Backend: "etcd"}, slog.Default())
	require.Error(t, err)
}

func TestEnsureDBDir(t *testing.T) {
	require.NoError(t, ensureDBDir(":memory:"))
	require.NoError(t, ensureDBDir("verdant.db"))
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ensureDBDir(filepath.Join(dir, "x.db")))
	require.DirExists(t, dir)
}
