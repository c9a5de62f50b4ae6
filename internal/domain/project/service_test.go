package project_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/verdant/internal/domain/project"
	"github.com/ganot/verdant/internal/kv"
	"github.com/ganot/verdant/internal/kv/kvtest"
)

// seedLegacy writes projects the way the unordered set layout did: a hash
// and a member of the projects set, with no ordering.
func seedLegacy(t *testing.T, store kv.Store, ids ...string) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		p := &project.Project{
			ID:        id,
			Slug:      "legacy-" + id,
			Title:     "Legacy " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.HSet(ctx, "project:"+id, project.Encode(p)))
		require.NoError(t, store.SAdd(ctx, "projects", id))
		require.NoError(t, store.Set(ctx, "project:slug:"+p.Slug, id))
	}
}

func mustCreate(t *testing.T, svc *project.Service, title string) *project.Project {
	t.Helper()
	p, err := svc.Create(context.Background(), project.CreateRequest{Title: title})
	require.NoError(t, err)
	return p
}

func pageIDs(t *testing.T, svc *project.Service, page, size int) []string {
	t.Helper()
	pg, err := svc.GetPage(context.Background(), page, size, project.ViewFull)
	require.NoError(t, err)
	return pg.IDs()
}

func TestEnsureInitialized_Idempotent(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		seedLegacy(t, store, "a", "b", "c")
		ord := project.NewOrdering(store, nil)

		migrated, err := ord.EnsureInitialized(ctx)
		require.NoError(t, err)
		require.True(t, migrated)
		first, err := ord.Ranked(ctx)
		require.NoError(t, err)
		require.Equal(t, []kv.Z{{Member: "c", Score: 0}, {Member: "b", Score: 1}, {Member: "a", Score: 2}}, first)

		migrated, err = ord.EnsureInitialized(ctx)
		require.NoError(t, err)
		require.False(t, migrated)
		second, err := ord.Ranked(ctx)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}

func TestEnsureInitialized_EmptyStoreWritesNothing(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		migrated, err := project.NewOrdering(store, nil).EnsureInitialized(ctx)
		require.NoError(t, err)
		require.False(t, migrated)

		exists, err := store.Exists(ctx, "projects:order")
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestEnsureInitialized_TiesBreakByID(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		same := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
		for _, id := range []string{"z", "m", "a"} {
			p := &project.Project{ID: id, Title: id, CreatedAt: same, UpdatedAt: same}
			require.NoError(t, store.HSet(ctx, "project:"+id, project.Encode(p)))
			require.NoError(t, store.SAdd(ctx, "projects", id))
		}
		// set member without a record
		require.NoError(t, store.SAdd(ctx, "projects", "ghost"))

		ord := project.NewOrdering(store, nil)
		_, err := ord.EnsureInitialized(ctx)
		require.NoError(t, err)
		ids, err := ord.IDs(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "m", "z"}, ids)
	})
}

func TestEnsureInitialized_ConcurrentCallsConverge(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		seedLegacy(t, store, "a", "b", "c", "d", "e")

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = project.NewOrdering(store, nil).EnsureInitialized(ctx)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		ids, err := project.NewOrdering(store, nil).IDs(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"e", "d", "c", "b", "a"}, ids)
	})
}

func TestCreate_InsertsAtHeadAfterMigration(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		seedLegacy(t, store, "a", "b", "c")
		svc := project.NewService(store, nil)

		require.Equal(t, []string{"c", "b", "a"}, pageIDs(t, svc, 1, 10))

		d := mustCreate(t, svc, "Courtyard")
		require.Equal(t, []string{d.ID, "c", "b", "a"}, pageIDs(t, svc, 1, 10))

		ranked, err := svc.Ordering().Ranked(context.Background())
		require.NoError(t, err)
		for i, z := range ranked {
			require.Equal(t, float64(i), z.Score)
		}
	})
}

func TestCreate_MigratesBeforeInserting(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		seedLegacy(t, store, "a", "b")
		svc := project.NewService(store, nil)

		// no read has happened yet: the create must not leave a one-member ordering
		p := mustCreate(t, svc, "Meadow")
		require.Equal(t, []string{p.ID, "b", "a"}, pageIDs(t, svc, 1, 10))
	})
}

func TestCreate_SequenceNewestFirst(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		svc := project.NewService(store, nil)
		a := mustCreate(t, svc, "A")
		b := mustCreate(t, svc, "B")
		c := mustCreate(t, svc, "C")
		require.Equal(t, []string{c.ID, b.ID, a.ID}, pageIDs(t, svc, 1, 10))
	})
}

func TestCreate_Validation(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)

		_, err := svc.Create(ctx, project.CreateRequest{Title: "   "})
		require.ErrorIs(t, err, project.ErrInvalidInput)

		_, err = svc.Create(ctx, project.CreateRequest{Title: "Ok", Slug: "!!!"})
		require.ErrorIs(t, err, project.ErrInvalidInput)

		p, err := svc.Create(ctx, project.CreateRequest{Title: "Xeriscape Front Yard", Slug: "  Dry Garden "})
		require.NoError(t, err)
		require.Equal(t, "dry-garden", p.Slug)
		require.Equal(t, []string{}, p.Images)
	})
}

func TestPagination_ConcatenatesToFullOrdering(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		svc := project.NewService(store, nil)
		var want []string
		for _, title := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
			p := mustCreate(t, svc, title)
			want = append([]string{p.ID}, want...)
		}

		for size := 1; size <= 8; size++ {
			first, err := svc.GetPage(context.Background(), 1, size, project.ViewFull)
			require.NoError(t, err)
			require.Equal(t, 7, first.TotalCount)
			require.Equal(t, (7+size-1)/size, first.TotalPages)

			var got []string
			for page := 1; page <= first.TotalPages; page++ {
				got = append(got, pageIDs(t, svc, page, size)...)
			}
			require.Equal(t, want, got, "page size %d", size)
		}
	})
}

func TestPagination_ViewsAgree(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		for _, title := range []string{"Pond", "Terrace", "Orchard"} {
			_, err := svc.Create(ctx, project.CreateRequest{
				Title:  title,
				Images: []string{"/img/" + title + "-hero.jpg", "/img/" + title + "-2.jpg"},
			})
			require.NoError(t, err)
		}

		full, err := svc.GetPage(ctx, 1, 2, project.ViewFull)
		require.NoError(t, err)
		opt, err := svc.GetPage(ctx, 1, 2, project.ViewOptimized)
		require.NoError(t, err)

		require.Equal(t, full.IDs(), opt.IDs())
		require.Equal(t, full.TotalCount, opt.TotalCount)
		require.Equal(t, full.TotalPages, opt.TotalPages)
		require.Nil(t, opt.Projects)
		require.Len(t, opt.Summaries, 2)
		for i, s := range opt.Summaries {
			require.Equal(t, full.Projects[i].Images[0], s.Image)
			require.Len(t, full.Projects[i].Images, 2)
		}
	})
}

func TestPagination_PastEndIsEmpty(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		mustCreate(t, svc, "Only")

		pg, err := svc.GetPage(ctx, 3, 5, project.ViewFull)
		require.NoError(t, err)
		require.NotNil(t, pg.Projects)
		require.Empty(t, pg.Projects)
		require.Equal(t, 1, pg.TotalCount)
		require.Equal(t, 1, pg.TotalPages)

		opt, err := svc.GetPage(ctx, 2, 1, project.ViewOptimized)
		require.NoError(t, err)
		require.NotNil(t, opt.Summaries)
		require.Empty(t, opt.Summaries)
	})
}

func TestPagination_EmptyStore(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		pg, err := project.NewService(store, nil).GetPage(context.Background(), 1, 9, project.ViewFull)
		require.NoError(t, err)
		require.Empty(t, pg.Projects)
		require.Equal(t, 0, pg.TotalCount)
		require.Equal(t, 0, pg.TotalPages)
	})
}

func TestPagination_InvalidArguments(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		svc := project.NewService(store, nil)
		for _, args := range [][2]int{{0, 5}, {1, 0}, {-1, -1}} {
			_, err := svc.GetPage(context.Background(), args[0], args[1], project.ViewFull)
			require.ErrorIs(t, err, project.ErrInvalidInput)
		}
	})
}

func TestPagination_HugePageIsEmpty(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		for i := range 60 {
			mustCreate(t, svc, fmt.Sprintf("Garden %d", i))
		}

		for _, view := range []project.View{project.ViewFull, project.ViewOptimized} {
			pg, err := svc.GetPage(ctx, math.MaxInt64, 50, view)
			require.NoError(t, err)
			require.Zero(t, pg.Len())
			require.NotNil(t, pg.IDs())
			require.Equal(t, 60, pg.TotalCount)
			require.Equal(t, 2, pg.TotalPages)
		}
	})
}

func TestPagination_HugeSizeIsOnePage(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		for i := range 3 {
			mustCreate(t, svc, fmt.Sprintf("Garden %d", i))
		}

		pg, err := svc.GetPage(ctx, 1, math.MaxInt64, project.ViewFull)
		require.NoError(t, err)
		require.Len(t, pg.Projects, 3)
		require.Equal(t, 3, pg.TotalCount)
		require.Equal(t, 1, pg.TotalPages)

		pg, err = svc.GetPage(ctx, 2, math.MaxInt64, project.ViewFull)
		require.NoError(t, err)
		require.Empty(t, pg.Projects)
		require.Equal(t, 1, pg.TotalPages)
	})
}

func TestReorder_RoundTrip(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		x := mustCreate(t, svc, "X")
		y := mustCreate(t, svc, "Y")
		z := mustCreate(t, svc, "Z")

		require.NoError(t, svc.Reorder(ctx, []string{x.ID, y.ID, z.ID}))
		require.Equal(t, []string{x.ID, y.ID, z.ID}, pageIDs(t, svc, 1, 3))

		// a create after a reorder still lands first
		w := mustCreate(t, svc, "W")
		require.Equal(t, []string{w.ID, x.ID, y.ID, z.ID}, pageIDs(t, svc, 1, 4))
	})
}

func TestReorder_Rejects(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		a := mustCreate(t, svc, "A")
		b := mustCreate(t, svc, "B")

		require.ErrorIs(t, svc.Reorder(ctx, nil), project.ErrInvalidInput)
		require.ErrorIs(t, svc.Reorder(ctx, []string{a.ID, a.ID}), project.ErrInvalidInput)
		require.ErrorIs(t, svc.Reorder(ctx, []string{a.ID, "missing"}), project.ErrProjectNotFound)

		// rejected calls leave the ordering alone
		require.Equal(t, []string{b.ID, a.ID}, pageIDs(t, svc, 1, 5))
	})
}

func TestReorder_SubsetDropsOthers(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		a := mustCreate(t, svc, "A")
		mustCreate(t, svc, "B")

		require.NoError(t, svc.Reorder(ctx, []string{a.ID}))
		pg, err := svc.GetPage(ctx, 1, 5, project.ViewFull)
		require.NoError(t, err)
		require.Equal(t, []string{a.ID}, pg.IDs())
		require.Equal(t, 1, pg.TotalCount)
	})
}

func TestSlug_Uniqueness(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		first, err := svc.Create(ctx, project.CreateRequest{Title: "Patio", Slug: "patio"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, project.CreateRequest{Title: "Another Patio", Slug: "patio"})
		require.ErrorIs(t, err, project.ErrDuplicateSlug)

		require.NoError(t, svc.Delete(ctx, first.ID))
		second, err := svc.Create(ctx, project.CreateRequest{Title: "Another Patio", Slug: "patio"})
		require.NoError(t, err)

		got, err := svc.GetBySlug(ctx, "patio")
		require.NoError(t, err)
		require.Equal(t, second.ID, got.ID)
	})
}

func TestSlug_DanglingMappingIsFree(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "project:slug:orchard", "gone"))

		svc := project.NewService(store, nil)
		p, err := svc.Create(ctx, project.CreateRequest{Title: "Orchard"})
		require.NoError(t, err)

		got, err := svc.GetBySlug(ctx, "orchard")
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
	})
}

func TestUpdate_RenameMovesSlug(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		p, err := svc.Create(ctx, project.CreateRequest{Title: "Garden", Slug: "old"})
		require.NoError(t, err)

		newSlug := "new"
		res, err := svc.Update(ctx, p.ID, project.UpdateRequest{Slug: &newSlug})
		require.NoError(t, err)
		require.Equal(t, "old", res.OldSlug)
		require.Equal(t, "new", res.NewSlug)

		old, err := svc.GetBySlug(ctx, "old")
		require.NoError(t, err)
		require.Nil(t, old)

		got, err := svc.GetBySlug(ctx, "new")
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
		require.Equal(t, "Garden", got.Title)
		require.Equal(t, p.CreatedAt, got.CreatedAt)
		require.False(t, got.UpdatedAt.Before(p.UpdatedAt))
	})
}

func TestUpdate_SameSlugIsNoOp(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		p, err := svc.Create(ctx, project.CreateRequest{Title: "Garden", Slug: "garden"})
		require.NoError(t, err)

		same := "garden"
		title := "Garden Refresh"
		res, err := svc.Update(ctx, p.ID, project.UpdateRequest{Slug: &same, Title: &title})
		require.NoError(t, err)
		require.Equal(t, "garden", res.OldSlug)
		require.Equal(t, "garden", res.NewSlug)

		got, err := svc.GetBySlug(ctx, "garden")
		require.NoError(t, err)
		require.Equal(t, "Garden Refresh", got.Title)
	})
}

func TestUpdate_RenameToTakenSlug(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		_, err := svc.Create(ctx, project.CreateRequest{Title: "A", Slug: "taken"})
		require.NoError(t, err)
		b, err := svc.Create(ctx, project.CreateRequest{Title: "B", Slug: "mine"})
		require.NoError(t, err)

		taken := "taken"
		_, err = svc.Update(ctx, b.ID, project.UpdateRequest{Slug: &taken})
		require.ErrorIs(t, err, project.ErrDuplicateSlug)

		got, err := svc.GetBySlug(ctx, "mine")
		require.NoError(t, err)
		require.Equal(t, b.ID, got.ID)
	})
}

func TestUpdate_PartialFields(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		p, err := svc.Create(ctx, project.CreateRequest{
			Title:    "Border",
			Location: "Portland",
			Plants:   []string{"Lavender"},
		})
		require.NoError(t, err)

		plants := []string{"Lavender", "Sage"}
		_, err = svc.Update(ctx, p.ID, project.UpdateRequest{Plants: &plants})
		require.NoError(t, err)

		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, "Portland", got.Location)
		require.Equal(t, plants, got.Plants)
		require.Equal(t, "border", got.Slug)
	})
}

func TestUpdate_NotFound(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		title := "x"
		_, err := project.NewService(store, nil).Update(context.Background(), "missing", project.UpdateRequest{Title: &title})
		require.ErrorIs(t, err, project.ErrProjectNotFound)
	})
}

func TestDelete_RemovesEverywhere(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		a := mustCreate(t, svc, "Alpha")
		b := mustCreate(t, svc, "Beta")

		require.NoError(t, svc.Delete(ctx, b.ID))
		require.Equal(t, []string{a.ID}, pageIDs(t, svc, 1, 5))

		got, err := svc.Get(ctx, b.ID)
		require.NoError(t, err)
		require.Nil(t, got)
		got, err = svc.GetBySlug(ctx, "beta")
		require.NoError(t, err)
		require.Nil(t, got)

		member, err := store.SIsMember(ctx, "projects", b.ID)
		require.NoError(t, err)
		require.False(t, member)

		require.ErrorIs(t, svc.Delete(ctx, b.ID), project.ErrProjectNotFound)
	})
}

func TestDelete_LeavesGapsThenCompact(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		a := mustCreate(t, svc, "A")
		b := mustCreate(t, svc, "B")
		c := mustCreate(t, svc, "C")
		require.NoError(t, svc.Delete(ctx, b.ID))

		ranked, err := svc.Ordering().Ranked(ctx)
		require.NoError(t, err)
		require.Equal(t, []kv.Z{{Member: c.ID, Score: 0}, {Member: a.ID, Score: 2}}, ranked)

		n, err := svc.Ordering().Compact(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		ranked, err = svc.Ordering().Ranked(ctx)
		require.NoError(t, err)
		require.Equal(t, []kv.Z{{Member: c.ID, Score: 0}, {Member: a.ID, Score: 1}}, ranked)
	})
}

func TestGet_MalformedImagesReadAsEmpty(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		p := mustCreate(t, svc, "Broken")
		require.NoError(t, store.HSet(ctx, "project:"+p.ID, map[string]string{"images": "{not json"}))

		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, []string{}, got.Images)

		pg, err := svc.GetPage(ctx, 1, 5, project.ViewOptimized)
		require.NoError(t, err)
		require.Len(t, pg.Summaries, 1)
		require.Equal(t, "", pg.Summaries[0].Image)
	})
}

func TestGet_Unknown(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := project.NewService(store, nil)
		got, err := svc.Get(ctx, "nope")
		require.NoError(t, err)
		require.Nil(t, got)
		got, err = svc.GetBySlug(ctx, "nope")
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

// interleavedStore runs between once fn has done its reads and queued its
// writes, before the transaction commits.
type interleavedStore struct {
	kv.Store
	between func()
}

func (s *interleavedStore) Update(ctx context.Context, fn func(tx kv.Tx) error, watch ...string) error {
	return s.Store.Update(ctx, func(tx kv.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if s.between != nil {
			between := s.between
			s.between = nil
			between()
		}
		return nil
	}, watch...)
}

func TestReorder_ConcurrentDeleteOfUnorderedProject(t *testing.T) {
	ctx := context.Background()
	store := kvtest.Redis(t)
	admin := project.NewService(store, nil)
	a := mustCreate(t, admin, "A")
	b := mustCreate(t, admin, "B")
	require.NoError(t, admin.Reorder(ctx, []string{a.ID}))

	racing := &interleavedStore{Store: store}
	svc := project.NewService(racing, nil)
	racing.between = func() {
		require.NoError(t, admin.Delete(ctx, b.ID))
	}

	err := svc.Reorder(ctx, []string{a.ID, b.ID})
	require.ErrorIs(t, err, kv.ErrUnavailable)

	pg, err := admin.GetPage(ctx, 1, 9, project.ViewFull)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID}, pg.IDs())
	require.Equal(t, 1, pg.TotalCount)
}
