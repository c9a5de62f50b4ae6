package contact

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/verdant/internal/kv"
	"github.com/ganot/verdant/internal/kv/kvtest"
)

// newTestService returns a service whose clock advances one minute per
// submission.
func newTestService(t *testing.T, store kv.Store) *Service {
	t.Helper()
	svc, err := NewService(store, nil)
	require.NoError(t, err)
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc
}

func submit(t *testing.T, svc *Service, name string) *Contact {
	t.Helper()
	c, err := svc.Submit(context.Background(), []byte(`{"name":"`+name+`","email":"`+name+`@example.com","message":"Need a new lawn"}`))
	require.NoError(t, err)
	return c
}

func TestSubmit_Stores(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := newTestService(t, store)

		c, err := svc.Submit(ctx, []byte(`{
			"name": " Ana ",
			"email": "ana@example.com",
			"phone": "555-0100",
			"message": "Drought tolerant front yard",
			"project_type": "xeriscape",
			"location": "Tucson",
			"budget_range": "5k-10k"
		}`))
		require.NoError(t, err)
		require.NotEmpty(t, c.ID)
		require.Equal(t, "Ana", c.Name)
		require.Equal(t, StatusNew, c.Status)

		got, err := svc.Get(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, c, got)
	})
}

func TestSubmit_Validation(t *testing.T) {
	svc := newTestService(t, kvtest.SQLite(t))
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"name":"Ana","message":"hi"}`},
		{"bad email", `{"name":"Ana","email":"not-an-email","message":"hi"}`},
		{"empty name", `{"name":"","email":"a@b.co","message":"hi"}`},
		{"blank message", `{"name":"Ana","email":"a@b.co","message":"   "}`},
		{"unknown field", `{"name":"Ana","email":"a@b.co","message":"hi","admin":true}`},
		{"wrong type", `{"name":"Ana","email":"a@b.co","message":42}`},
		{"not json", `name=Ana`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), []byte(tt.body))
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestList_NewestFirst(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := newTestService(t, store)
		a := submit(t, svc, "a")
		b := submit(t, svc, "b")
		c := submit(t, svc, "c")

		pg, err := svc.List(ctx, 1, 2)
		require.NoError(t, err)
		require.Equal(t, 3, pg.TotalCount)
		require.Equal(t, 2, pg.TotalPages)
		require.Len(t, pg.Items, 2)
		require.Equal(t, c.ID, pg.Items[0].ID)
		require.Equal(t, b.ID, pg.Items[1].ID)

		pg, err = svc.List(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, pg.Items, 1)
		require.Equal(t, a.ID, pg.Items[0].ID)

		pg, err = svc.List(ctx, 5, 2)
		require.NoError(t, err)
		require.NotNil(t, pg.Items)
		require.Empty(t, pg.Items)

		_, err = svc.List(ctx, 0, 2)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestSetStatus(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := newTestService(t, store)
		c := submit(t, svc, "ana")

		require.NoError(t, svc.SetStatus(ctx, c.ID, StatusReplied))
		got, err := svc.Get(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, StatusReplied, got.Status)
		require.Equal(t, c.Message, got.Message)

		require.ErrorIs(t, svc.SetStatus(ctx, c.ID, "spam"), ErrInvalidStatus)
		require.ErrorIs(t, svc.SetStatus(ctx, "missing", StatusRead), ErrContactNotFound)
	})
}

func TestDelete(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := newTestService(t, store)
		c := submit(t, svc, "ana")
		other := submit(t, svc, "ben")

		require.NoError(t, svc.Delete(ctx, c.ID))
		got, err := svc.Get(ctx, c.ID)
		require.NoError(t, err)
		require.Nil(t, got)

		pg, err := svc.List(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, pg.Items, 1)
		require.Equal(t, other.ID, pg.Items[0].ID)

		require.ErrorIs(t, svc.Delete(ctx, c.ID), ErrContactNotFound)
	})
}

func TestDecode_UnknownStatusReadsAsNew(t *testing.T) {
	c := decode(map[string]string{"id": "c1", "status": "bogus", "created_at": "garbage"})
	require.Equal(t, StatusNew, c.Status)
	require.True(t, c.CreatedAt.IsZero())
	require.Nil(t, decode(nil))
}

func TestList_HugePageArguments(t *testing.T) {
	kvtest.Run(t, func(t *testing.T, store kv.Store) {
		ctx := context.Background()
		svc := newTestService(t, store)
		for i := range 3 {
			submit(t, svc, fmt.Sprintf("visitor%d", i))
		}

		pg, err := svc.List(ctx, math.MaxInt64, 50)
		require.NoError(t, err)
		require.NotNil(t, pg.Items)
		require.Empty(t, pg.Items)
		require.Equal(t, 3, pg.TotalCount)
		require.Equal(t, 1, pg.TotalPages)

		pg, err = svc.List(ctx, 1, math.MaxInt64)
		require.NoError(t, err)
		require.Len(t, pg.Items, 3)
		require.Equal(t, 1, pg.TotalPages)
	})
}

func TestPageWindow(t *testing.T) {
	start, stop, ok := pageWindow(3, 10)
	require.True(t, ok)
	require.Equal(t, int64(20), start)
	require.Equal(t, int64(29), stop)

	_, _, ok = pageWindow(math.MaxInt64, 2)
	require.False(t, ok)

	start, stop, ok = pageWindow(1, math.MaxInt64)
	require.True(t, ok)
	require.Equal(t, int64(0), start)
	require.Equal(t, int64(math.MaxInt64-1), stop)

	require.Equal(t, 0, totalPages(0, 9))
	require.Equal(t, 1, totalPages(9, 9))
	require.Equal(t, 2, totalPages(10, 9))
	require.Equal(t, 1, totalPages(3, math.MaxInt64))
}
