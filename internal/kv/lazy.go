package kv

import (
	"context"
	"log/slog"
	"sync"
)

// DialFunc opens a connected Store.
type DialFunc func(ctx context.Context) (Store, error)

// Lazy is a Store that dials its backend on first use and shares the
// connection between callers. When a call fails with a connection-level
// error the handle is dropped, and the next call dials again. There is no
// background reconnect: the first caller after a failure pays for it.
type Lazy struct {
	dial      DialFunc
	isConnErr func(error) bool
	logger    *slog.Logger

	mu  sync.Mutex
	cur Store
}

var _ Store = (*Lazy)(nil)

// NewLazy creates a Lazy store. isConnErr classifies errors that should
// reset the connection; nil means only dial failures do.
func NewLazy(dial DialFunc, isConnErr func(error) bool, logger *slog.Logger) *Lazy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lazy{dial: dial, isConnErr: isConnErr, logger: logger}
}

func (l *Lazy) acquire(ctx context.Context) (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cur != nil {
		return l.cur, nil
	}
	s, err := l.dial(ctx)
	if err != nil {
		return nil, Wrap("dial", err)
	}
	l.logger.Debug("store connected")
	l.cur = s
	return s, nil
}

// Reset closes and forgets the current connection, if any.
func (l *Lazy) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
}

func (l *Lazy) resetLocked() {
	if l.cur == nil {
		return
	}
	if err := l.cur.Close(); err != nil {
		l.logger.Warn("closing store connection", "error", err)
	}
	l.cur = nil
}

// release drops s if err is a connection-level failure. The handle is only
// cleared if it is still the one that failed.
func (l *Lazy) release(s Store, err error) {
	if err == nil || l.isConnErr == nil || !l.isConnErr(err) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == s {
		l.logger.Warn("store connection reset", "error", err)
		l.resetLocked()
	}
}

func call[T any](ctx context.Context, l *Lazy, fn func(Store) (T, error)) (T, error) {
	s, err := l.acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := fn(s)
	l.release(s, err)
	return v, err
}

func exec(ctx context.Context, l *Lazy, fn func(Store) error) error {
	_, err := call(ctx, l, func(s Store) (struct{}, error) {
		return struct{}{}, fn(s)
	})
	return err
}

func (l *Lazy) Get(ctx context.Context, key string) (string, bool, error) {
	var found bool
	v, err := call(ctx, l, func(s Store) (string, error) {
		var err error
		var v string
		v, found, err = s.Get(ctx, key)
		return v, err
	})
	return v, found, err
}

func (l *Lazy) Exists(ctx context.Context, key string) (bool, error) {
	return call(ctx, l, func(s Store) (bool, error) { return s.Exists(ctx, key) })
}

func (l *Lazy) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return call(ctx, l, func(s Store) (map[string]string, error) { return s.HGetAll(ctx, key) })
}

func (l *Lazy) SMembers(ctx context.Context, key string) ([]string, error) {
	return call(ctx, l, func(s Store) ([]string, error) { return s.SMembers(ctx, key) })
}

func (l *Lazy) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return call(ctx, l, func(s Store) (bool, error) { return s.SIsMember(ctx, key, member) })
}

func (l *Lazy) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return call(ctx, l, func(s Store) ([]string, error) { return s.ZRange(ctx, key, start, stop) })
}

func (l *Lazy) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]Z, error) {
	return call(ctx, l, func(s Store) ([]Z, error) { return s.ZRangeWithScores(ctx, key, start, stop) })
}

func (l *Lazy) ZCard(ctx context.Context, key string) (int64, error) {
	return call(ctx, l, func(s Store) (int64, error) { return s.ZCard(ctx, key) })
}

func (l *Lazy) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	var found bool
	v, err := call(ctx, l, func(s Store) (float64, error) {
		var err error
		var v float64
		v, found, err = s.ZScore(ctx, key, member)
		return v, err
	})
	return v, found, err
}

func (l *Lazy) ZWindow(ctx context.Context, key string, start, stop int64, rev bool) ([]string, int64, error) {
	var total int64
	members, err := call(ctx, l, func(s Store) ([]string, error) {
		var err error
		var members []string
		members, total, err = s.ZWindow(ctx, key, start, stop, rev)
		return members, err
	})
	return members, total, err
}

func (l *Lazy) HGetAllMany(ctx context.Context, keys ...string) ([]map[string]string, error) {
	return call(ctx, l, func(s Store) ([]map[string]string, error) { return s.HGetAllMany(ctx, keys...) })
}

func (l *Lazy) Set(ctx context.Context, key, value string) error {
	return exec(ctx, l, func(s Store) error { return s.Set(ctx, key, value) })
}

func (l *Lazy) Del(ctx context.Context, keys ...string) error {
	return exec(ctx, l, func(s Store) error { return s.Del(ctx, keys...) })
}

func (l *Lazy) HSet(ctx context.Context, key string, fields map[string]string) error {
	return exec(ctx, l, func(s Store) error { return s.HSet(ctx, key, fields) })
}

func (l *Lazy) SAdd(ctx context.Context, key string, members ...string) error {
	return exec(ctx, l, func(s Store) error { return s.SAdd(ctx, key, members...) })
}

func (l *Lazy) SRem(ctx context.Context, key string, members ...string) error {
	return exec(ctx, l, func(s Store) error { return s.SRem(ctx, key, members...) })
}

func (l *Lazy) ZAdd(ctx context.Context, key string, members ...Z) error {
	return exec(ctx, l, func(s Store) error { return s.ZAdd(ctx, key, members...) })
}

func (l *Lazy) ZIncrBy(ctx context.Context, key string, delta float64, member string) error {
	return exec(ctx, l, func(s Store) error { return s.ZIncrBy(ctx, key, delta, member) })
}

func (l *Lazy) ZRem(ctx context.Context, key string, members ...string) error {
	return exec(ctx, l, func(s Store) error { return s.ZRem(ctx, key, members...) })
}

func (l *Lazy) Update(ctx context.Context, fn func(tx Tx) error, watch ...string) error {
	return exec(ctx, l, func(s Store) error { return s.Update(ctx, fn, watch...) })
}

func (l *Lazy) Ping(ctx context.Context) error {
	return exec(ctx, l, func(s Store) error { return s.Ping(ctx) })
}

// Close closes the current connection. A later call dials again.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == nil {
		return nil
	}
	err := l.cur.Close()
	l.cur = nil
	return err
}
