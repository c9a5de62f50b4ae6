// Package redis implements kv.Store on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ganot/verdant/internal/kv"
)

// Store implements kv.Store with a go-redis client.
type Store struct {
	reader
	writer
	client *goredis.Client
}

var _ kv.Store = (*Store)(nil)

// New wraps an existing client.
func New(client *goredis.Client) *Store {
	return &Store{
		reader: reader{c: client},
		writer: writer{c: client},
		client: client,
	}
}

// Dial connects to the server at url (redis://[:password@]host:port/db) and
// checks the connection with PING.
func Dial(ctx context.Context, url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client), nil
}

// IsConnError reports whether err means the connection is unusable.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goredis.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ZWindow reads the range and the cardinality in one MULTI/EXEC block.
func (s *Store) ZWindow(ctx context.Context, key string, start, stop int64, rev bool) ([]string, int64, error) {
	var rng *goredis.StringSliceCmd
	var card *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if rev {
			rng = pipe.ZRevRange(ctx, key, start, stop)
		} else {
			rng = pipe.ZRange(ctx, key, start, stop)
		}
		card = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return nil, 0, kv.Wrap("zwindow", err)
	}
	return rng.Val(), card.Val(), nil
}

// HGetAllMany pipelines one HGETALL per key.
func (s *Store) HGetAllMany(ctx context.Context, keys ...string) ([]map[string]string, error) {
	cmds := make([]*goredis.MapStringStringCmd, len(keys))
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HGetAll(ctx, key)
		}
		return nil
	})
	if err != nil {
		return nil, kv.Wrap("hgetallmany", err)
	}
	out := make([]map[string]string, len(keys))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
		if out[i] == nil {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

// Update runs fn under WATCH on the given keys. Reads inside fn go to the
// server immediately; writes are queued and sent in one MULTI/EXEC when fn
// returns nil. If a watched key changed in the meantime EXEC aborts and the
// error (matching goredis.TxFailedErr) is returned.
func (s *Store) Update(ctx context.Context, fn func(tx kv.Tx) error, watch ...string) error {
	var fnErr error
	err := s.client.Watch(ctx, func(rtx *goredis.Tx) error {
		t := &tx{reader: reader{c: rtx}}
		if err := fn(t); err != nil {
			fnErr = err
			return err
		}
		if len(t.queue) == 0 {
			return nil
		}
		_, err := rtx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for _, op := range t.queue {
				op(pipe)
			}
			return nil
		})
		return err
	}, watch...)
	if fnErr != nil {
		return fnErr
	}
	return kv.Wrap("update", err)
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return kv.Wrap("ping", s.client.Ping(ctx).Err())
}

// Close closes the client and its pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// readCmds is the subset of commands shared by *goredis.Client and
// *goredis.Tx that reader needs.
type readCmds interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
	HGetAll(ctx context.Context, key string) *goredis.MapStringStringCmd
	SMembers(ctx context.Context, key string) *goredis.StringSliceCmd
	SIsMember(ctx context.Context, key string, member interface{}) *goredis.BoolCmd
	ZRange(ctx context.Context, key string, start, stop int64) *goredis.StringSliceCmd
	ZRangeWithScores(ctx context.Context, key string, start, stop int64) *goredis.ZSliceCmd
	ZCard(ctx context.Context, key string) *goredis.IntCmd
	ZScore(ctx context.Context, key, member string) *goredis.FloatCmd
}

type reader struct {
	c readCmds
}

func (r reader) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.c.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, kv.Wrap("get", err)
	}
	return v, true, nil
}

func (r reader) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.c.Exists(ctx, key).Result()
	if err != nil {
		return false, kv.Wrap("exists", err)
	}
	return n > 0, nil
}

func (r reader) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := r.c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, kv.Wrap("hgetall", err)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

func (r reader) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.c.SMembers(ctx, key).Result()
	if err != nil {
		return nil, kv.Wrap("smembers", err)
	}
	return members, nil
}

func (r reader) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := r.c.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, kv.Wrap("sismember", err)
	}
	return ok, nil
}

func (r reader) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	members, err := r.c.ZRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, kv.Wrap("zrange", err)
	}
	return members, nil
}

func (r reader) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]kv.Z, error) {
	zs, err := r.c.ZRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, kv.Wrap("zrange", err)
	}
	out := make([]kv.Z, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		out[i] = kv.Z{Member: member, Score: z.Score}
	}
	return out, nil
}

func (r reader) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := r.c.ZCard(ctx, key).Result()
	if err != nil {
		return 0, kv.Wrap("zcard", err)
	}
	return n, nil
}

func (r reader) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := r.c.ZScore(ctx, key, member).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, kv.Wrap("zscore", err)
	}
	return score, true, nil
}

// writer issues commands directly.
type writer struct {
	c *goredis.Client
}

func (w writer) Set(ctx context.Context, key, value string) error {
	return kv.Wrap("set", w.c.Set(ctx, key, value, 0).Err())
}

func (w writer) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return kv.Wrap("del", w.c.Del(ctx, keys...).Err())
}

func (w writer) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return kv.Wrap("hset", w.c.HSet(ctx, key, pairs(fields)...).Err())
}

func (w writer) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return kv.Wrap("sadd", w.c.SAdd(ctx, key, anys(members)...).Err())
}

func (w writer) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return kv.Wrap("srem", w.c.SRem(ctx, key, anys(members)...).Err())
}

func (w writer) ZAdd(ctx context.Context, key string, members ...kv.Z) error {
	if len(members) == 0 {
		return nil
	}
	return kv.Wrap("zadd", w.c.ZAdd(ctx, key, zs(members)...).Err())
}

func (w writer) ZIncrBy(ctx context.Context, key string, delta float64, member string) error {
	return kv.Wrap("zincrby", w.c.ZIncrBy(ctx, key, delta, member).Err())
}

func (w writer) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return kv.Wrap("zrem", w.c.ZRem(ctx, key, anys(members)...).Err())
}

// tx reads through the watched connection and queues writes for EXEC.
type tx struct {
	reader
	queue []func(pipe goredis.Pipeliner)
}

func (t *tx) push(op func(pipe goredis.Pipeliner)) error {
	t.queue = append(t.queue, op)
	return nil
}

func (t *tx) Set(ctx context.Context, key, value string) error {
	return t.push(func(p goredis.Pipeliner) { p.Set(ctx, key, value, 0) })
}

func (t *tx) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return t.push(func(p goredis.Pipeliner) { p.Del(ctx, keys...) })
}

func (t *tx) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := pairs(fields)
	return t.push(func(p goredis.Pipeliner) { p.HSet(ctx, key, args...) })
}

func (t *tx) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := anys(members)
	return t.push(func(p goredis.Pipeliner) { p.SAdd(ctx, key, args...) })
}

func (t *tx) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := anys(members)
	return t.push(func(p goredis.Pipeliner) { p.SRem(ctx, key, args...) })
}

func (t *tx) ZAdd(ctx context.Context, key string, members ...kv.Z) error {
	if len(members) == 0 {
		return nil
	}
	args := zs(members)
	return t.push(func(p goredis.Pipeliner) { p.ZAdd(ctx, key, args...) })
}

func (t *tx) ZIncrBy(ctx context.Context, key string, delta float64, member string) error {
	return t.push(func(p goredis.Pipeliner) { p.ZIncrBy(ctx, key, delta, member) })
}

func (t *tx) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := anys(members)
	return t.push(func(p goredis.Pipeliner) { p.ZRem(ctx, key, args...) })
}

func pairs(fields map[string]string) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func anys(members []string) []any {
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}

func zs(members []kv.Z) []goredis.Z {
	out := make([]goredis.Z, len(members))
	for i, z := range members {
		out[i] = goredis.Z{Score: z.Score, Member: z.Member}
	}
	return out
}
