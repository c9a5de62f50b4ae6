package project

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ganot/verdant/internal/kv"
)

// Ordering keeps the display order of the portfolio in the projects:order
// sorted set. Rank 0 is shown first; gaps between ranks are allowed.
type Ordering struct {
	store  kv.Store
	logger *slog.Logger
}

// NewOrdering creates an ordering engine on store.
func NewOrdering(store kv.Store, logger *slog.Logger) *Ordering {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ordering{store: store, logger: logger}
}

// EnsureInitialized derives the ordering from the legacy projects set when
// it does not exist yet: newest createdAt first, ties broken by id. The
// result depends only on stored data, so concurrent callers converge.
// migrated reports whether this call wrote the ordering.
func (o *Ordering) EnsureInitialized(ctx context.Context) (migrated bool, err error) {
	exists, err := o.store.Exists(ctx, keyOrder)
	if err != nil {
		return false, fmt.Errorf("checking ordering: %w", err)
	}
	if exists {
		return false, nil
	}

	ids, err := o.store.SMembers(ctx, keyAll)
	if err != nil {
		return false, fmt.Errorf("listing projects: %w", err)
	}
	if len(ids) == 0 {
		return false, nil
	}
	ranks, err := o.derive(ctx, ids)
	if err != nil {
		return false, err
	}
	if len(ranks) == 0 {
		return false, nil
	}

	err = o.store.Update(ctx, func(tx kv.Tx) error {
		exists, err := tx.Exists(ctx, keyOrder)
		if err != nil || exists {
			return err
		}
		migrated = true
		return tx.ZAdd(ctx, keyOrder, ranks...)
	}, keyOrder)
	if err != nil {
		// Lost the race to another migrator: the ordering it wrote is the
		// same one.
		if ok, existsErr := o.store.Exists(ctx, keyOrder); existsErr == nil && ok {
			return false, nil
		}
		return false, fmt.Errorf("writing ordering: %w", err)
	}
	if migrated {
		o.logger.Info("project ordering initialized", "count", len(ranks))
	}
	return migrated, nil
}

func (o *Ordering) derive(ctx context.Context, ids []string) ([]kv.Z, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyProject(id)
	}
	hashes, err := o.store.HGetAllMany(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}

	type entry struct {
		id      string
		created time.Time
	}
	entries := make([]entry, 0, len(ids))
	for i, id := range ids {
		if len(hashes[i]) == 0 {
			o.logger.Warn("skipping project without record", "id", id)
			continue
		}
		created, err := decodeTime(hashes[i][fieldCreatedAt])
		if err != nil {
			o.logger.Warn("malformed project fields", "id", id, "fields", []string{fieldCreatedAt})
		}
		entries = append(entries, entry{id: id, created: created})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := b.created.Compare(a.created); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	ranks := make([]kv.Z, len(entries))
	for i, e := range entries {
		ranks[i] = kv.Z{Member: e.id, Score: float64(i)}
	}
	return ranks, nil
}

// insertAtHead shifts every ranked project down by one and puts id at rank
// 0. It must run inside a transaction watching keyOrder; members are read
// before any write is queued.
func (o *Ordering) insertAtHead(ctx context.Context, tx kv.Tx, id string) error {
	members, err := tx.ZRange(ctx, keyOrder, 0, -1)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := tx.ZIncrBy(ctx, keyOrder, 1, m); err != nil {
			return err
		}
	}
	return tx.ZAdd(ctx, keyOrder, kv.Z{Member: id, Score: 0})
}

// remove drops id from the ordering without renumbering the rest.
func (o *Ordering) remove(ctx context.Context, tx kv.Tx, id string) error {
	return tx.ZRem(ctx, keyOrder, id)
}

// Reorder replaces the ordering so that each id's rank is its position in
// ids. Every id must be a live project and appear once. Projects left out
// drop out of the listing.
func (o *Ordering) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: empty id list", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	// each record is watched too: a listed id may be outside the ordering,
	// so deleting it would not touch keyOrder
	watch := make([]string, 0, len(ids)+1)
	watch = append(watch, keyOrder)
	for _, id := range ids {
		watch = append(watch, keyProject(id))
	}

	var dropped int64
	err := o.store.Update(ctx, func(tx kv.Tx) error {
		for _, id := range ids {
			ok, err := tx.Exists(ctx, keyProject(id))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
			}
		}
		n, err := tx.ZCard(ctx, keyOrder)
		if err != nil {
			return err
		}
		dropped = n - int64(len(ids))

		ranks := make([]kv.Z, len(ids))
		for i, id := range ids {
			ranks[i] = kv.Z{Member: id, Score: float64(i)}
		}
		if err := tx.Del(ctx, keyOrder); err != nil {
			return err
		}
		return tx.ZAdd(ctx, keyOrder, ranks...)
	}, watch...)
	if err != nil {
		return err
	}
	if dropped > 0 {
		o.logger.Warn("reorder left projects out of the ordering", "dropped", dropped)
	}
	return nil
}

// Compact rewrites the ordering with dense ranks 0..n-1, keeping the
// current relative order. It returns the number of ranked projects.
func (o *Ordering) Compact(ctx context.Context) (int, error) {
	var n int
	err := o.store.Update(ctx, func(tx kv.Tx) error {
		members, err := tx.ZRange(ctx, keyOrder, 0, -1)
		if err != nil {
			return err
		}
		n = len(members)
		if n == 0 {
			return nil
		}
		ranks := make([]kv.Z, n)
		for i, m := range members {
			ranks[i] = kv.Z{Member: m, Score: float64(i)}
		}
		if err := tx.Del(ctx, keyOrder); err != nil {
			return err
		}
		return tx.ZAdd(ctx, keyOrder, ranks...)
	}, keyOrder)
	if err != nil {
		return 0, fmt.Errorf("compacting ordering: %w", err)
	}
	return n, nil
}

// Ranked returns the full ordering with ranks, rank 0 first.
func (o *Ordering) Ranked(ctx context.Context) ([]kv.Z, error) {
	zs, err := o.store.ZRangeWithScores(ctx, keyOrder, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading ordering: %w", err)
	}
	return zs, nil
}

// IDs returns the ordered project ids.
func (o *Ordering) IDs(ctx context.Context) ([]string, error) {
	ids, err := o.store.ZRange(ctx, keyOrder, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading ordering: %w", err)
	}
	return ids, nil
}
