package mocks

import (
	"context"

	"github.com/ganot/verdant/internal/kv"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for kv.Store.
//
// Update calls fn with the mock itself as the transaction, so expectations
// set on the read and write methods apply inside transactions too.
type Store struct {
	mock.Mock
}

var _ kv.Store = (*Store)(nil)

func (m *Store) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *Store) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	args := m.Called(ctx, key)
	if fields, ok := args.Get(0).(map[string]string); ok {
		return fields, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	args := m.Called(ctx, key)
	if members, ok := args.Get(0).([]string); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	args := m.Called(ctx, key, member)
	return args.Bool(0), args.Error(1)
}

func (m *Store) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	args := m.Called(ctx, key, start, stop)
	if members, ok := args.Get(0).([]string); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]kv.Z, error) {
	args := m.Called(ctx, key, start, stop)
	if members, ok := args.Get(0).([]kv.Z); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) ZCard(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Store) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	args := m.Called(ctx, key, member)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *Store) ZWindow(ctx context.Context, key string, start, stop int64, rev bool) ([]string, int64, error) {
	args := m.Called(ctx, key, start, stop, rev)
	if members, ok := args.Get(0).([]string); ok {
		return members, args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *Store) HGetAllMany(ctx context.Context, keys ...string) ([]map[string]string, error) {
	args := m.Called(ctx, keys)
	if hashes, ok := args.Get(0).([]map[string]string); ok {
		return hashes, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *Store) Del(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	args := m.Called(ctx, key, fields)
	return args.Error(0)
}

func (m *Store) SAdd(ctx context.Context, key string, members ...string) error {
	args := m.Called(ctx, key, members)
	return args.Error(0)
}

func (m *Store) SRem(ctx context.Context, key string, members ...string) error {
	args := m.Called(ctx, key, members)
	return args.Error(0)
}

func (m *Store) ZAdd(ctx context.Context, key string, members ...kv.Z) error {
	args := m.Called(ctx, key, members)
	return args.Error(0)
}

func (m *Store) ZIncrBy(ctx context.Context, key string, delta float64, member string) error {
	args := m.Called(ctx, key, delta, member)
	return args.Error(0)
}

func (m *Store) ZRem(ctx context.Context, key string, members ...string) error {
	args := m.Called(ctx, key, members)
	return args.Error(0)
}

func (m *Store) Update(ctx context.Context, fn func(tx kv.Tx) error, watch ...string) error {
	args := m.Called(ctx, watch)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *Store) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Store) Close() error {
	args := m.Called()
	return args.Error(0)
}
