// Package storetest holds the behavior every sealedfield.Store must share,
// run against each adapter from its own tests.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai8future/sealedfield"
)

// Run exercises s. It expects an empty store.
func Run(t *testing.T, s sealedfield.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns id", func(t *testing.T) {
		rec, err := s.Create(ctx, sealedfield.EntityTask, sealedfield.Record{"title": "ct"})
		require.NoError(t, err)
		require.NotEmpty(t, rec.ID())

		got, err := s.Get(ctx, sealedfield.EntityTask, rec.ID())
		require.NoError(t, err)
		require.Equal(t, "ct", got["title"])
	})

	t.Run("create keeps given id", func(t *testing.T) {
		rec, err := s.Create(ctx, sealedfield.EntityGoal, sealedfield.Record{"id": "g1", "title": "ct"})
		require.NoError(t, err)
		require.Equal(t, "g1", rec.ID())

		_, err = s.Create(ctx, sealedfield.EntityGoal, sealedfield.Record{"id": "g1"})
		require.ErrorIs(t, err, sealedfield.ErrDuplicateID)

		// ids are scoped per entity
		_, err = s.Create(ctx, sealedfield.EntityProject, sealedfield.Record{"id": "g1"})
		require.NoError(t, err)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, sealedfield.EntityUser, "missing")
		require.ErrorIs(t, err, sealedfield.ErrNotFound)
	})

	t.Run("update merges", func(t *testing.T) {
		_, err := s.Create(ctx, sealedfield.EntityUser, sealedfield.Record{"id": "u1", "email": "e", "firstName": "f"})
		require.NoError(t, err)

		got, err := s.Update(ctx, sealedfield.EntityUser, "u1", sealedfield.Record{"firstName": "F", "lastName": nil, "id": "other"})
		require.NoError(t, err)
		require.Equal(t, "u1", got.ID())
		require.Equal(t, "e", got["email"])
		require.Equal(t, "F", got["firstName"])
		require.Contains(t, got, "lastName")
		require.Nil(t, got["lastName"])

		stored, err := s.Get(ctx, sealedfield.EntityUser, "u1")
		require.NoError(t, err)
		require.Equal(t, got, stored)

		_, err = s.Update(ctx, sealedfield.EntityUser, "missing", sealedfield.Record{"email": "x"})
		require.ErrorIs(t, err, sealedfield.ErrNotFound)
	})

	t.Run("list in creation order", func(t *testing.T) {
		var ids []string
		for _, title := range []string{"a", "b", "c"} {
			rec, err := s.Create(ctx, sealedfield.EntityProject, sealedfield.Record{"name": title})
			require.NoError(t, err)
			ids = append(ids, rec.ID())
		}

		rows, err := s.List(ctx, sealedfield.EntityProject)
		require.NoError(t, err)

		var names []any
		for _, r := range rows {
			if r["name"] != nil {
				names = append(names, r["name"])
			}
		}
		require.Equal(t, []any{"a", "b", "c"}, names)

		empty, err := s.List(ctx, "nothing")
		require.NoError(t, err)
		require.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		rec, err := s.Create(ctx, sealedfield.EntityTask, sealedfield.Record{"title": "gone"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, sealedfield.EntityTask, rec.ID()))
		require.ErrorIs(t, s.Delete(ctx, sealedfield.EntityTask, rec.ID()), sealedfield.ErrNotFound)

		_, err = s.Get(ctx, sealedfield.EntityTask, rec.ID())
		require.ErrorIs(t, err, sealedfield.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Create(cctx, sealedfield.EntityTask, sealedfield.Record{"title": "x"})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("concurrent creates", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Create(ctx, "burst", sealedfield.Record{"v": "x"}); err != nil {
					t.Errorf("create: %v", err)
				}
			}()
		}
		wg.Wait()

		rows, err := s.List(ctx, "burst")
		require.NoError(t, err)
		require.Len(t, rows, 20)
	})

	t.Run("repository round trip", func(t *testing.T) {
		codec, err := sealedfield.New(sealedfield.MustDeriveKey("storetest"))
		require.NoError(t, err)
		repo, err := sealedfield.NewRepository(s, sealedfield.NewMapper(codec))
		require.NoError(t, err)

		created, err := repo.Create(ctx, sealedfield.EntityUser, sealedfield.Record{"email": "zed@x.com", "lastName": "Zed"})
		require.NoError(t, err)

		raw, err := s.Get(ctx, sealedfield.EntityUser, created.ID())
		require.NoError(t, err)
		require.False(t, sealedfield.NeedsEncryption(raw["email"]))

		found, err := repo.FindBy(ctx, sealedfield.EntityUser, "email", "zed@x.com")
		require.NoError(t, err)
		require.Equal(t, created.ID(), found.ID())
		require.Equal(t, "Zed", found["lastName"])
	})
}
