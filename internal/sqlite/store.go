package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/verdant/internal/kv"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements kv.Store on top of SQLite tables.
type Store struct {
	ops
	db *DB
}

var _ kv.Store = (*Store)(nil)

// NewStore creates a Store on a migrated database.
func NewStore(db *DB) *Store {
	return &Store{ops: ops{q: db}, db: db}
}

// Open opens the database at dataSourceName, migrates it and returns a Store.
func Open(ctx context.Context, dataSourceName string) (*Store, error) {
	db, err := New(dataSourceName)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// ZWindow reads the window and the cardinality inside one transaction.
func (s *Store) ZWindow(ctx context.Context, key string, start, stop int64, rev bool) ([]string, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, kv.Wrap("zwindow", err)
	}
	defer tx.Rollback()

	o := ops{q: tx}
	total, err := o.ZCard(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	zs, err := o.zrange(ctx, key, start, stop, rev, total)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, kv.Wrap("zwindow", err)
	}

	members := make([]string, len(zs))
	for i, z := range zs {
		members[i] = z.Member
	}
	return members, total, nil
}

// HGetAllMany reads each hash in turn inside one transaction.
func (s *Store) HGetAllMany(ctx context.Context, keys ...string) ([]map[string]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, kv.Wrap("hgetallmany", err)
	}
	defer tx.Rollback()

	o := ops{q: tx}
	out := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		fields, err := o.HGetAll(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, fields)
	}
	if err := tx.Commit(); err != nil {
		return nil, kv.Wrap("hgetallmany", err)
	}
	return out, nil
}

// Update runs fn in a SQL transaction. Watch keys are not needed: SQLite
// serialises writers, so the transaction already excludes concurrent writes.
func (s *Store) Update(ctx context.Context, fn func(tx kv.Tx) error, _ ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kv.Wrap("begin", err)
	}
	defer tx.Rollback()

	if err := fn(&ops{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return kv.Wrap("commit", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return kv.Wrap("ping", s.db.PingContext(ctx))
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ops implements the read and write primitives over a *sql.DB or *sql.Tx.
type ops struct {
	q querier
}

func (o *ops) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := o.q.QueryRowContext(ctx, `SELECT value FROM kv_strings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, kv.Wrap("get", err)
	}
	return value, true, nil
}

func (o *ops) Exists(ctx context.Context, key string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM kv_strings WHERE key = ?1)
			OR EXISTS(SELECT 1 FROM kv_hashes WHERE key = ?1)
			OR EXISTS(SELECT 1 FROM kv_sets WHERE key = ?1)
			OR EXISTS(SELECT 1 FROM kv_zsets WHERE key = ?1)
	`
	var exists bool
	if err := o.q.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, kv.Wrap("exists", err)
	}
	return exists, nil
}

func (o *ops) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := o.q.QueryContext(ctx, `SELECT field, value FROM kv_hashes WHERE key = ?`, key)
	if err != nil {
		return nil, kv.Wrap("hgetall", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, kv.Wrap("hgetall", err)
		}
		fields[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, kv.Wrap("hgetall", err)
	}
	return fields, nil
}

func (o *ops) SMembers(ctx context.Context, key string) ([]string, error) {
	return o.strings(ctx, "smembers", `SELECT member FROM kv_sets WHERE key = ? ORDER BY member`, key)
}

func (o *ops) SIsMember(ctx context.Context, key, member string) (bool, error) {
	var exists bool
	err := o.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM kv_sets WHERE key = ? AND member = ?)`, key, member).Scan(&exists)
	if err != nil {
		return false, kv.Wrap("sismember", err)
	}
	return exists, nil
}

func (o *ops) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	zs, err := o.ZRangeWithScores(ctx, key, start, stop)
	if err != nil {
		return nil, err
	}
	members := make([]string, len(zs))
	for i, z := range zs {
		members[i] = z.Member
	}
	return members, nil
}

func (o *ops) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]kv.Z, error) {
	total := int64(-1)
	if start < 0 || stop < 0 {
		n, err := o.ZCard(ctx, key)
		if err != nil {
			return nil, err
		}
		total = n
	}
	return o.zrange(ctx, key, start, stop, false, total)
}

// zrange reads members start..stop. total is the cardinality when known,
// or -1; it is only required for negative indexes.
func (o *ops) zrange(ctx context.Context, key string, start, stop int64, rev bool, total int64) ([]kv.Z, error) {
	offset, limit, ok := window(start, stop, total)
	if !ok {
		return []kv.Z{}, nil
	}

	query := `SELECT member, score FROM kv_zsets WHERE key = ? ORDER BY score ASC, member ASC LIMIT ? OFFSET ?`
	if rev {
		query = `SELECT member, score FROM kv_zsets WHERE key = ? ORDER BY score DESC, member DESC LIMIT ? OFFSET ?`
	}

	rows, err := o.q.QueryContext(ctx, query, key, limit, offset)
	if err != nil {
		return nil, kv.Wrap("zrange", err)
	}
	defer rows.Close()

	zs := []kv.Z{}
	for rows.Next() {
		var z kv.Z
		if err := rows.Scan(&z.Member, &z.Score); err != nil {
			return nil, kv.Wrap("zrange", err)
		}
		zs = append(zs, z)
	}
	if err := rows.Err(); err != nil {
		return nil, kv.Wrap("zrange", err)
	}
	return zs, nil
}

// window converts Redis-style inclusive indexes into OFFSET/LIMIT.
func window(start, stop, total int64) (offset, limit int64, ok bool) {
	if start < 0 {
		start += total
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += total
	}
	if total >= 0 && stop >= total {
		stop = total - 1
	}
	if stop < start {
		return 0, 0, false
	}
	return start, stop - start + 1, true
}

func (o *ops) ZCard(ctx context.Context, key string) (int64, error) {
	var n int64
	if err := o.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_zsets WHERE key = ?`, key).Scan(&n); err != nil {
		return 0, kv.Wrap("zcard", err)
	}
	return n, nil
}

func (o *ops) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	var score float64
	err := o.q.QueryRowContext(ctx,
		`SELECT score FROM kv_zsets WHERE key = ? AND member = ?`, key, member).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, kv.Wrap("zscore", err)
	}
	return score, true, nil
}

func (o *ops) Set(ctx context.Context, key, value string) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO kv_strings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return kv.Wrap("set", err)
}

func (o *ops) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		for _, table := range []string{"kv_strings", "kv_hashes", "kv_sets", "kv_zsets"} {
			if _, err := o.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE key = ?`, key); err != nil {
				return kv.Wrap("del", err)
			}
		}
	}
	return nil
}

func (o *ops) HSet(ctx context.Context, key string, fields map[string]string) error {
	for field, value := range fields {
		_, err := o.q.ExecContext(ctx, `
			INSERT INTO kv_hashes (key, field, value) VALUES (?, ?, ?)
			ON CONFLICT(key, field) DO UPDATE SET value = excluded.value
		`, key, field, value)
		if err != nil {
			return kv.Wrap("hset", err)
		}
	}
	return nil
}

func (o *ops) SAdd(ctx context.Context, key string, members ...string) error {
	for _, member := range members {
		if _, err := o.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO kv_sets (key, member) VALUES (?, ?)`, key, member); err != nil {
			return kv.Wrap("sadd", err)
		}
	}
	return nil
}

func (o *ops) SRem(ctx context.Context, key string, members ...string) error {
	for _, member := range members {
		if _, err := o.q.ExecContext(ctx,
			`DELETE FROM kv_sets WHERE key = ? AND member = ?`, key, member); err != nil {
			return kv.Wrap("srem", err)
		}
	}
	return nil
}

func (o *ops) ZAdd(ctx context.Context, key string, members ...kv.Z) error {
	for _, z := range members {
		_, err := o.q.ExecContext(ctx, `
			INSERT INTO kv_zsets (key, member, score) VALUES (?, ?, ?)
			ON CONFLICT(key, member) DO UPDATE SET score = excluded.score
		`, key, z.Member, z.Score)
		if err != nil {
			return kv.Wrap("zadd", err)
		}
	}
	return nil
}

func (o *ops) ZIncrBy(ctx context.Context, key string, delta float64, member string) error {
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO kv_zsets (key, member, score) VALUES (?, ?, ?)
		ON CONFLICT(key, member) DO UPDATE SET score = kv_zsets.score + excluded.score
	`, key, member, delta)
	return kv.Wrap("zincrby", err)
}

func (o *ops) ZRem(ctx context.Context, key string, members ...string) error {
	for _, member := range members {
		if _, err := o.q.ExecContext(ctx,
			`DELETE FROM kv_zsets WHERE key = ? AND member = ?`, key, member); err != nil {
			return kv.Wrap("zrem", err)
		}
	}
	return nil
}

func (o *ops) strings(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, kv.Wrap(op, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, kv.Wrap(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, kv.Wrap(op, err)
	}
	return out, nil
}
