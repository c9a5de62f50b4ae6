// Package kvtest opens throwaway stores for tests.
package kvtest

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ganot/verdant/internal/kv"
	"github.com/ganot/verdant/internal/redis"
	"github.com/ganot/verdant/internal/sqlite"
)

// Backend names a store implementation.
type Backend struct {
	Name string
	Open func(t *testing.T) kv.Store
}

// Backends lists every store implementation the service runs on.
var Backends = []Backend{
	{Name: "sqlite", Open: SQLite},
	{Name: "redis", Open: Redis},
}

// SQLite opens an in-memory SQLite store.
func SQLite(t *testing.T) kv.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Redis starts a miniredis server and connects to it.
func Redis(t *testing.T) kv.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := redis.Dial(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Run runs fn once per backend as a subtest.
func Run(t *testing.T, fn func(t *testing.T, store kv.Store)) {
	t.Helper()
	for _, b := range Backends {
		t.Run(b.Name, func(t *testing.T) {
			fn(t, b.Open(t))
		})
	}
}
