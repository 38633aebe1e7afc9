// Package catalogtest holds the behaviour suite every PhotoRepo backend must pass.
package catalogtest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sagarc03/photoblog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRepoFunc returns an empty, migrated repo. Cleanup is registered on t.
type NewRepoFunc func(t *testing.T) photoblog.PhotoRepo

// Run executes the suite against repos built by newRepo.
func Run(t *testing.T, newRepo NewRepoFunc) {
	t.Run("Create", func(t *testing.T) { testCreate(t, newRepo) })
	t.Run("Get", func(t *testing.T) { testGet(t, newRepo) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newRepo) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo) })
	t.Run("IncrementLikes", func(t *testing.T) { testIncrementLikes(t, newRepo) })
	t.Run("Find", func(t *testing.T) { testFind(t, newRepo) })
	t.Run("ListDistinctTags", func(t *testing.T) { testListDistinctTags(t, newRepo) })
}

func create(t *testing.T, repo photoblog.PhotoRepo, c photoblog.CreatePhoto) photoblog.Photo {
	t.Helper()
	if c.Description == "" {
		c.Description = "description"
	}
	if c.ObjectKey == "" {
		c.ObjectKey = fmt.Sprintf("photos/%s.jpg", uuid.NewString())
	}
	p, err := repo.Create(context.Background(), c)
	require.NoError(t, err, "create %q", c.Title)
	return p
}

func testCreate(t *testing.T, newRepo NewRepoFunc) {
	t.Run("success round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, photoblog.CreatePhoto{
			Title:       "Harbour",
			Description: "Boats at dawn",
			ObjectKey:   "photos/harbour.jpg",
			Tags:        []string{"sea", "boats"},
			Location:    "Kochi",
			Camera:      "X100V",
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, 0, created.Likes)
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.UpdatedAt.IsZero())

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)

		assert.Equal(t, "Harbour", got.Title)
		assert.Equal(t, "Boats at dawn", got.Description)
		assert.Equal(t, "photos/harbour.jpg", got.ObjectKey)
		assert.ElementsMatch(t, []string{"sea", "boats"}, got.Tags)
		assert.Equal(t, "Kochi", got.Location)
		assert.Equal(t, "X100V", got.Camera)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("success without optional fields", func(t *testing.T) {
		repo := newRepo(t)

		p := create(t, repo, photoblog.CreatePhoto{Title: "Plain"})

		assert.NotNil(t, p.Tags)
		assert.Empty(t, p.Tags)
		assert.Empty(t, p.Location)
		assert.Empty(t, p.Camera)
	})

	t.Run("error duplicate object key", func(t *testing.T) {
		repo := newRepo(t)

		create(t, repo, photoblog.CreatePhoto{Title: "First", ObjectKey: "photos/same.jpg"})

		_, err := repo.Create(context.Background(), photoblog.CreatePhoto{
			Title:       "Second",
			Description: "d",
			ObjectKey:   "photos/same.jpg",
		})
		assert.ErrorIs(t, err, photoblog.ErrValidationFailed)
	})
}

func testGet(t *testing.T, newRepo NewRepoFunc) {
	t.Run("error not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(context.Background(), uuid.New())
		assert.ErrorIs(t, err, photoblog.ErrNotFound)
	})
}

func testUpdate(t *testing.T, newRepo NewRepoFunc) {
	t.Run("success partial", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := create(t, repo, photoblog.CreatePhoto{
			Title:    "Old",
			Tags:     []string{"a"},
			Location: "Goa",
			Camera:   "Leica",
		})

		updated, err := repo.Update(ctx, p.ID, photoblog.PhotoUpdate{
			Title: photoblog.Some("New"),
		})
		require.NoError(t, err)

		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, p.Description, updated.Description)
		assert.Equal(t, p.ObjectKey, updated.ObjectKey)
		assert.Equal(t, []string{"a"}, updated.Tags)
		assert.Equal(t, "Goa", updated.Location)
		assert.Equal(t, "Leica", updated.Camera)
		assert.True(t, p.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(p.UpdatedAt))
	})

	t.Run("success clears optional fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := create(t, repo, photoblog.CreatePhoto{
			Title:    "Full",
			Tags:     []string{"a", "b"},
			Location: "Goa",
			Camera:   "Leica",
		})

		updated, err := repo.Update(ctx, p.ID, photoblog.PhotoUpdate{
			Tags:     photoblog.Some([]string{}),
			Location: photoblog.Some(""),
			Camera:   photoblog.Some(""),
		})
		require.NoError(t, err)

		assert.Empty(t, updated.Tags)
		assert.Empty(t, updated.Location)
		assert.Empty(t, updated.Camera)

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
		assert.Empty(t, got.Location)
	})

	t.Run("success replaces object key", func(t *testing.T) {
		repo := newRepo(t)

		p := create(t, repo, photoblog.CreatePhoto{Title: "Swap", ObjectKey: "photos/old.jpg"})

		updated, err := repo.Update(context.Background(), p.ID, photoblog.PhotoUpdate{
			ObjectKey: photoblog.Some("photos/new.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "photos/new.png", updated.ObjectKey)
	})

	t.Run("error not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Update(context.Background(), uuid.New(), photoblog.PhotoUpdate{
			Title: photoblog.Some("Ghost"),
		})
		assert.ErrorIs(t, err, photoblog.ErrNotFound)
	})

	t.Run("error object key taken", func(t *testing.T) {
		repo := newRepo(t)

		create(t, repo, photoblog.CreatePhoto{Title: "One", ObjectKey: "photos/one.jpg"})
		two := create(t, repo, photoblog.CreatePhoto{Title: "Two", ObjectKey: "photos/two.jpg"})

		_, err := repo.Update(context.Background(), two.ID, photoblog.PhotoUpdate{
			ObjectKey: photoblog.Some("photos/one.jpg"),
		})
		assert.ErrorIs(t, err, photoblog.ErrValidationFailed)
	})
}

func testDelete(t *testing.T, newRepo NewRepoFunc) {
	t.Run("success then not found", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := create(t, repo, photoblog.CreatePhoto{Title: "Gone"})

		require.NoError(t, repo.Delete(ctx, p.ID))

		_, err := repo.Get(ctx, p.ID)
		assert.ErrorIs(t, err, photoblog.ErrNotFound)

		err = repo.Delete(ctx, p.ID)
		assert.ErrorIs(t, err, photoblog.ErrNotFound)
	})

	t.Run("success frees object key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := create(t, repo, photoblog.CreatePhoto{Title: "Reuse", ObjectKey: "photos/reuse.jpg"})
		require.NoError(t, repo.Delete(ctx, p.ID))

		create(t, repo, photoblog.CreatePhoto{Title: "Reuse again", ObjectKey: "photos/reuse.jpg"})
	})
}

func testIncrementLikes(t *testing.T, newRepo NewRepoFunc) {
	t.Run("success concurrent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := create(t, repo, photoblog.CreatePhoto{Title: "Popular"})

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)

		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.IncrementLikes(ctx, p.ID)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, n, got.Likes)
	})

	t.Run("success returns new count", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := create(t, repo, photoblog.CreatePhoto{Title: "Once"})

		liked, err := repo.IncrementLikes(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, liked.Likes)
		assert.Equal(t, p.Title, liked.Title)
	})

	t.Run("error not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.IncrementLikes(context.Background(), uuid.New())
		assert.ErrorIs(t, err, photoblog.ErrNotFound)
	})
}

func testFind(t *testing.T, newRepo NewRepoFunc) {
	t.Run("success pagination", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for i := range 25 {
			create(t, repo, photoblog.CreatePhoto{Title: fmt.Sprintf("photo %02d", i)})
		}

		seen := map[uuid.UUID]bool{}
		for page, want := range map[int]int{1: 12, 2: 12, 3: 1} {
			items, total, err := repo.Find(ctx, photoblog.Filter{}, page, 12)
			require.NoError(t, err)
			assert.Equal(t, 25, total)
			assert.Len(t, items, want, "page %d", page)
			for _, p := range items {
				assert.False(t, seen[p.ID], "duplicate %s", p.ID)
				seen[p.ID] = true
			}
		}
		assert.Len(t, seen, 25)

		items, total, err := repo.Find(ctx, photoblog.Filter{}, 4, 12)
		require.NoError(t, err)
		assert.Equal(t, 25, total)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("success huge page is empty", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		create(t, repo, photoblog.CreatePhoto{Title: "only"})

		for _, page := range []int{math.MaxInt/12 + 2, math.MaxInt} {
			items, total, err := repo.Find(ctx, photoblog.Filter{}, page, 12)
			require.NoError(t, err, "page %d", page)
			assert.Equal(t, 1, total)
			assert.NotNil(t, items)
			assert.Empty(t, items, "page %d", page)
		}
	})

	t.Run("success newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for i := range 5 {
			create(t, repo, photoblog.CreatePhoto{Title: fmt.Sprintf("photo %d", i)})
		}

		items, _, err := repo.Find(ctx, photoblog.Filter{}, 1, 10)
		require.NoError(t, err)
		require.Len(t, items, 5)

		for i := 1; i < len(items); i++ {
			assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt),
				"item %d is newer than item %d", i, i-1)
		}
	})

	t.Run("success empty catalog", func(t *testing.T) {
		repo := newRepo(t)

		items, total, err := repo.Find(context.Background(), photoblog.Filter{}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("success search is case insensitive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		beach := create(t, repo, photoblog.CreatePhoto{Title: "Sunset Beach", Description: "Warm light"})
		create(t, repo, photoblog.CreatePhoto{Title: "Mountain", Description: "Snow"})
		cliff := create(t, repo, photoblog.CreatePhoto{Title: "Cliffs", Description: "A SUNSET over rocks"})

		items, total, err := repo.Find(ctx, photoblog.Filter{Search: "sunset"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.ElementsMatch(t, []uuid.UUID{beach.ID, cliff.ID}, ids(items))

		items, _, err = repo.Find(ctx, photoblog.Filter{Search: "BEACH"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{beach.ID}, ids(items))
	})

	t.Run("success search folds non-ascii letters", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		paris := create(t, repo, photoblog.CreatePhoto{Title: "Été à Paris", Description: "Rooftops"})
		create(t, repo, photoblog.CreatePhoto{Title: "Winter", Description: "Snow"})
		munich := create(t, repo, photoblog.CreatePhoto{Title: "Munich", Description: "STRASSE BEI NACHT, ÜBER DIE BRÜCKE"})

		items, total, err := repo.Find(ctx, photoblog.Filter{Search: "été"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []uuid.UUID{paris.ID}, ids(items))

		items, _, err = repo.Find(ctx, photoblog.Filter{Search: "ÉTÉ À"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{paris.ID}, ids(items))

		items, _, err = repo.Find(ctx, photoblog.Filter{Search: "über die brücke"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{munich.ID}, ids(items))
	})

	t.Run("success search escapes wildcards", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		literal := create(t, repo, photoblog.CreatePhoto{Title: "100% natural", Description: "a_b"})
		create(t, repo, photoblog.CreatePhoto{Title: "100 natural", Description: "axb"})

		items, _, err := repo.Find(ctx, photoblog.Filter{Search: "100%"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{literal.ID}, ids(items))

		items, _, err = repo.Find(ctx, photoblog.Filter{Search: "a_b"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{literal.ID}, ids(items))
	})

	t.Run("success tag is exact membership", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		beach := create(t, repo, photoblog.CreatePhoto{Title: "Shore", Tags: []string{"beach", "sea"}})
		create(t, repo, photoblog.CreatePhoto{Title: "Beacon", Tags: []string{"beacon"}})

		items, total, err := repo.Find(ctx, photoblog.Filter{Tag: "beach"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []uuid.UUID{beach.ID}, ids(items))

		items, total, err = repo.Find(ctx, photoblog.Filter{Tag: "beac"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, items)
	})

	t.Run("success search and tag combined", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		match := create(t, repo, photoblog.CreatePhoto{Title: "Sunset", Tags: []string{"sea"}})
		create(t, repo, photoblog.CreatePhoto{Title: "Sunset", Tags: []string{"hills"}})
		create(t, repo, photoblog.CreatePhoto{Title: "Dawn", Tags: []string{"sea"}})

		items, total, err := repo.Find(ctx, photoblog.Filter{Search: "sun", Tag: "sea"}, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []uuid.UUID{match.ID}, ids(items))
	})

	t.Run("error invalid page size", func(t *testing.T) {
		repo := newRepo(t)

		_, _, err := repo.Find(context.Background(), photoblog.Filter{}, 1, 0)
		assert.ErrorIs(t, err, photoblog.ErrValidationFailed)
	})
}

func testListDistinctTags(t *testing.T, newRepo NewRepoFunc) {
	t.Run("success sorted and deduplicated", func(t *testing.T) {
		repo := newRepo(t)

		create(t, repo, photoblog.CreatePhoto{Title: "One", Tags: []string{"sea", "beach"}})
		create(t, repo, photoblog.CreatePhoto{Title: "Two", Tags: []string{"beach", "Zebra"}})
		create(t, repo, photoblog.CreatePhoto{Title: "Three"})

		tags, err := repo.ListDistinctTags(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Zebra", "beach", "sea"}, tags)
	})

	t.Run("success empty", func(t *testing.T) {
		repo := newRepo(t)

		tags, err := repo.ListDistinctTags(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, tags)
		assert.Empty(t, tags)
	})
}

func ids(photos []photoblog.Photo) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(photos))
	for _, p := range photos {
		out = append(out, p.ID)
	}
	return out
}
