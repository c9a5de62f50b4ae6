package kv

import "context"

// Z is a sorted-set member with its score.
type Z struct {
	Member string
	Score  float64
}

// Reader provides the read primitives of the store protocol.
//
// Range arguments follow Redis index semantics: stop is inclusive and
// negative indexes count from the end. Members with equal scores sort
// lexicographically.
type Reader interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]Z, error)
	ZCard(ctx context.Context, key string) (int64, error)
	ZScore(ctx context.Context, key, member string) (float64, bool, error)
}

// Writer provides the mutating primitives of the store protocol.
type Writer interface {
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	ZAdd(ctx context.Context, key string, members ...Z) error
	ZIncrBy(ctx context.Context, key string, delta float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) error
}

// Tx is the view of the store handed to an Update callback.
//
// Writes made through a Tx become visible atomically when the callback
// returns nil. Backends may queue writes until commit, so a Tx must do
// all of its reads before its first write.
type Tx interface {
	Reader
	Writer
}

// Store is a key-value store supporting strings, hashes, sets and sorted sets.
type Store interface {
	Reader
	Writer

	// ZWindow returns members start..stop of a sorted set together with its
	// cardinality, both read from the same snapshot. rev walks from the
	// highest score down.
	ZWindow(ctx context.Context, key string, start, stop int64, rev bool) ([]string, int64, error)

	// HGetAllMany reads several hashes in one round trip. Missing hashes
	// come back as empty maps.
	HGetAllMany(ctx context.Context, keys ...string) ([]map[string]string, error)

	// Update runs fn inside a transaction. On backends with optimistic
	// locking the watch keys are monitored from the start of fn, and a
	// concurrent change to any of them makes the commit fail. The failure
	// is returned as-is; Update never retries.
	Update(ctx context.Context, fn func(tx Tx) error, watch ...string) error

	Ping(ctx context.Context) error
	Close() error
}
