// Package storage selects and dials the configured store backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ganot/verdant/internal/config"
	"github.com/ganot/verdant/internal/kv"
	"github.com/ganot/verdant/internal/redis"
	"github.com/ganot/verdant/internal/sqlite"
)

// Dialer returns the dial function and connection-error classifier for the
// configured backend.
func Dialer(cfg config.StoreConfig) (kv.DialFunc, func(error) bool, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		path := cfg.SQLite.Path
		return func(ctx context.Context) (kv.Store, error) {
			if err := ensureDBDir(path); err != nil {
				return nil, fmt.Errorf("preparing database path: %w", err)
			}
			s, err := sqlite.Open(ctx, path)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, sqlite.IsConnError, nil
	case config.BackendRedis:
		url := cfg.Redis.URL
		return func(ctx context.Context) (kv.Store, error) {
			s, err := redis.Dial(ctx, url)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, redis.IsConnError, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Open returns a lazily connected store for cfg. Nothing is dialed until the
// first call.
func Open(cfg config.StoreConfig, logger *slog.Logger) (*kv.Lazy, error) {
	dial, isConnErr, err := Dialer(cfg)
	if err != nil {
		return nil, err
	}
	return kv.NewLazy(dial, isConnErr, logger.With("backend", cfg.Backend)), nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
