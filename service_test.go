package photoblog_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/photoblog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyPhotoRepo struct {
	mock.Mock
}

func (s *SpyPhotoRepo) Find(ctx context.Context, f photoblog.Filter, page, pageSize int) ([]photoblog.Photo, int, error) {
	args := s.Called(ctx, f, page, pageSize)
	return args.Get(0).([]photoblog.Photo), args.Int(1), args.Error(2)
}

func (s *SpyPhotoRepo) Get(ctx context.Context, id uuid.UUID) (photoblog.Photo, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(photoblog.Photo), args.Error(1)
}

func (s *SpyPhotoRepo) Create(ctx context.Context, p photoblog.CreatePhoto) (photoblog.Photo, error) {
	args := s.Called(ctx, p)
	return args.Get(0).(photoblog.Photo), args.Error(1)
}

func (s *SpyPhotoRepo) Update(ctx context.Context, id uuid.UUID, u photoblog.PhotoUpdate) (photoblog.Photo, error) {
	args := s.Called(ctx, id, u)
	return args.Get(0).(photoblog.Photo), args.Error(1)
}

func (s *SpyPhotoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

func (s *SpyPhotoRepo) IncrementLikes(ctx context.Context, id uuid.UUID) (photoblog.Photo, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(photoblog.Photo), args.Error(1)
}

func (s *SpyPhotoRepo) ListDistinctTags(ctx context.Context) ([]string, error) {
	args := s.Called(ctx)
	tags, _ := args.Get(0).([]string)
	return tags, args.Error(1)
}

type SpyObjectStore struct {
	mock.Mock
}

func (s *SpyObjectStore) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	args := s.Called(ctx, key, content, size, contentType)
	return args.Error(0)
}

func (s *SpyObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := s.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (s *SpyObjectStore) Delete(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

func (s *SpyObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	args := s.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (s *SpyObjectStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	args := s.Called(ctx, key, contentType, ttl)
	return args.String(0), args.Error(1)
}

func (s *SpyObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := s.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func NewCoordinator(t *testing.T) (*photoblog.Coordinator, *SpyPhotoRepo, *SpyObjectStore) {
	t.Helper()
	return NewCoordinatorWithConfig(t, photoblog.CoordinatorConfig{})
}

func NewCoordinatorWithConfig(t *testing.T, cfg photoblog.CoordinatorConfig) (*photoblog.Coordinator, *SpyPhotoRepo, *SpyObjectStore) {
	t.Helper()
	spyRepo := new(SpyPhotoRepo)
	spyStore := new(SpyObjectStore)
	grants, err := photoblog.NewGrantIssuer(spyStore, photoblog.GrantConfig{})
	require.NoError(t, err, "new grant issuer")
	c, err := photoblog.NewCoordinator(spyRepo, spyStore, grants, cfg)
	require.NoError(t, err, "new coordinator")
	return c, spyRepo, spyStore
}

func storedPhoto(key string) photoblog.Photo {
	now := time.Now().UTC()
	return photoblog.Photo{
		ID:          uuid.New(),
		Title:       "A",
		Description: "B",
		ObjectKey:   key,
		Tags:        []string{"x", "y"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCoordinator_IssueUploadTarget(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		store.On("PresignPut", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "photos/") && strings.HasSuffix(key, ".jpg")
		}), "image/jpeg", photoblog.DefaultUploadTTL).Return("https://store.example/put", nil)

		before := time.Now()
		target, err := c.IssueUploadTarget(ctx, "Beach.JPG", "image/jpeg")
		require.NoError(t, err)

		assert.Equal(t, "https://store.example/put", target.UploadURL)
		assert.True(t, photoblog.IsValidKey(target.ObjectKey))
		assert.WithinDuration(t, before.Add(5*time.Minute), target.ExpiresAt, 5*time.Second)

		store.AssertExpectations(t)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("success create binds the issued key", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		store.On("PresignPut", ctx, mock.Anything, "image/png", mock.Anything).Return("https://store.example/put", nil)

		target, err := c.IssueUploadTarget(ctx, "a.png", "image/png")
		require.NoError(t, err)

		in := photoblog.CreatePhoto{Title: "A", Description: "B", ObjectKey: target.ObjectKey}
		want := storedPhoto(target.ObjectKey)
		repo.On("Create", ctx, mock.MatchedBy(func(p photoblog.CreatePhoto) bool {
			return p.ObjectKey == target.ObjectKey
		})).Return(want, nil)

		got, err := c.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, target.ObjectKey, got.ObjectKey)
	})

	tests := []struct {
		name        string
		filename    string
		contentType string
	}{
		{name: "missing filename", filename: "", contentType: "image/jpeg"},
		{name: "missing content type", filename: "a.jpg", contentType: ""},
		{name: "no extension", filename: "photo", contentType: "image/jpeg"},
		{name: "not an image", filename: "a.jpg", contentType: "application/pdf"},
		{name: "malformed content type", filename: "a.jpg", contentType: "image/"},
	}

	for _, tt := range tests {
		t.Run("error "+tt.name, func(t *testing.T) {
			c, _, store := NewCoordinator(t)

			_, err := c.IssueUploadTarget(context.Background(), tt.filename, tt.contentType)
			assert.ErrorIs(t, err, photoblog.ErrValidationFailed)

			store.AssertNotCalled(t, "PresignPut")
		})
	}

	t.Run("error store unavailable", func(t *testing.T) {
		c, _, store := NewCoordinator(t)
		ctx := context.Background()

		store.On("PresignPut", ctx, mock.Anything, "image/jpeg", mock.Anything).Return("", errors.New("no credentials"))

		_, err := c.IssueUploadTarget(ctx, "a.jpg", "image/jpeg")
		assert.ErrorIs(t, err, photoblog.ErrStoreUnavailable)
		assert.Equal(t, photoblog.KindStoreUnavailable, photoblog.Kind(err))
	})
}

func TestCoordinator_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		in := photoblog.CreatePhoto{
			Title:       "A",
			Description: "B",
			ObjectKey:   "photos/abc.jpg",
			Tags:        []string{"x", "y", "x"},
		}
		normalized := in
		normalized.Tags = []string{"x", "y"}
		want := storedPhoto("photos/abc.jpg")

		repo.On("Create", ctx, normalized).Return(want, nil)

		got, err := c.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, 0, got.Likes)

		repo.AssertExpectations(t)
		store.AssertNotCalled(t, "Exists")
	})

	t.Run("error validation does not touch stores", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)

		_, err := c.Create(context.Background(), photoblog.CreatePhoto{Description: "B", ObjectKey: "photos/abc.jpg"})
		assert.ErrorIs(t, err, photoblog.ErrValidationFailed)

		repo.AssertNotCalled(t, "Create")
		store.AssertNotCalled(t, "Exists")
	})

	t.Run("error duplicate object key", func(t *testing.T) {
		c, repo, _ := NewCoordinator(t)
		ctx := context.Background()

		dupErr := errors.Join(photoblog.ErrValidationFailed, errors.New("object key already referenced"))
		repo.On("Create", ctx, mock.Anything).Return(photoblog.Photo{}, dupErr)

		_, err := c.Create(ctx, photoblog.CreatePhoto{Title: "A", Description: "B", ObjectKey: "photos/abc.jpg"})
		assert.ErrorIs(t, err, photoblog.ErrValidationFailed)
	})

	t.Run("error catalog unavailable", func(t *testing.T) {
		c, repo, _ := NewCoordinator(t)
		ctx := context.Background()

		repo.On("Create", ctx, mock.Anything).Return(photoblog.Photo{}, errors.New("connection refused"))

		_, err := c.Create(ctx, photoblog.CreatePhoto{Title: "A", Description: "B", ObjectKey: "photos/abc.jpg"})
		assert.ErrorIs(t, err, photoblog.ErrStoreUnavailable)
	})

	t.Run("context cancelled before operation", func(t *testing.T) {
		c, repo, _ := NewCoordinator(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Create(ctx, photoblog.CreatePhoto{Title: "A", Description: "B", ObjectKey: "photos/abc.jpg"})
		assert.ErrorIs(t, err, context.Canceled)

		repo.AssertNotCalled(t, "Create")
	})
}

func TestCoordinator_Create_WithVerifier(t *testing.T) {
	newCoordinator := func(t *testing.T) (*photoblog.Coordinator, *SpyPhotoRepo, *SpyObjectStore) {
		verifier := new(SpyObjectStore)
		c, repo, _ := NewCoordinatorWithConfig(t, photoblog.CoordinatorConfig{Verifier: verifier})
		return c, repo, verifier
	}

	in := photoblog.CreatePhoto{Title: "A", Description: "B", ObjectKey: "photos/abc.jpg"}

	t.Run("success object exists", func(t *testing.T) {
		c, repo, verifier := newCoordinator(t)
		ctx := context.Background()

		verifier.On("Exists", ctx, "photos/abc.jpg").Return(true, nil)
		repo.On("Create", ctx, mock.Anything).Return(storedPhoto("photos/abc.jpg"), nil)

		_, err := c.Create(ctx, in)
		require.NoError(t, err)

		verifier.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("error object never uploaded", func(t *testing.T) {
		c, repo, verifier := newCoordinator(t)
		ctx := context.Background()

		verifier.On("Exists", ctx, "photos/abc.jpg").Return(false, nil)

		_, err := c.Create(ctx, in)
		assert.ErrorIs(t, err, photoblog.ErrValidationFailed)

		repo.AssertNotCalled(t, "Create")
	})

	t.Run("error verifier unavailable", func(t *testing.T) {
		c, repo, verifier := newCoordinator(t)
		ctx := context.Background()

		verifier.On("Exists", ctx, "photos/abc.jpg").Return(false, errors.New("timeout"))

		_, err := c.Create(ctx, in)
		assert.ErrorIs(t, err, photoblog.ErrStoreUnavailable)

		repo.AssertNotCalled(t, "Create")
	})
}

func TestCoordinator_Update(t *testing.T) {
	t.Run("success field only edit skips object store", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/old.jpg")
		u := photoblog.PhotoUpdate{Title: photoblog.Some("New title")}
		updated := current
		updated.Title = "New title"

		repo.On("Get", ctx, current.ID).Return(current, nil)
		repo.On("Update", ctx, current.ID, u).Return(updated, nil)

		got, err := c.Update(ctx, current.ID, u)
		require.NoError(t, err)
		assert.Equal(t, "New title", got.Title)

		repo.AssertExpectations(t)
		store.AssertNotCalled(t, "Delete")
	})

	t.Run("success same key is a field only edit", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/old.jpg")
		u := photoblog.PhotoUpdate{ObjectKey: photoblog.Some("photos/old.jpg"), Camera: photoblog.Some("X100V")}

		repo.On("Get", ctx, current.ID).Return(current, nil)
		repo.On("Update", ctx, current.ID, photoblog.PhotoUpdate{Camera: photoblog.Some("X100V")}).Return(current, nil)

		_, err := c.Update(ctx, current.ID, u)
		require.NoError(t, err)

		repo.AssertExpectations(t)
		store.AssertNotCalled(t, "Delete")
	})

	t.Run("success empty update returns current", func(t *testing.T) {
		c, repo, _ := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/old.jpg")
		repo.On("Get", ctx, current.ID).Return(current, nil)

		got, err := c.Update(ctx, current.ID, photoblog.PhotoUpdate{})
		require.NoError(t, err)
		assert.Equal(t, current, got)

		repo.AssertNotCalled(t, "Update")
	})

	t.Run("success replacement deletes old object before commit", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/old.jpg")
		u := photoblog.PhotoUpdate{ObjectKey: photoblog.Some("photos/new.jpg")}
		updated := current
		updated.ObjectKey = "photos/new.jpg"

		var order []string
		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/old.jpg").Return(nil).Run(func(mock.Arguments) { order = append(order, "delete") })
		repo.On("Update", mock.Anything, current.ID, u).Return(updated, nil).Run(func(mock.Arguments) { order = append(order, "commit") })

		got, err := c.Update(ctx, current.ID, u)
		require.NoError(t, err)
		assert.Equal(t, "photos/new.jpg", got.ObjectKey)
		assert.Equal(t, []string{"delete", "commit"}, order)

		repo.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("error old object delete fails leaves row unchanged", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/old.jpg")
		u := photoblog.PhotoUpdate{ObjectKey: photoblog.Some("photos/new.jpg"), Title: photoblog.Some("T")}

		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/old.jpg").Return(errors.New("connection reset"))

		_, err := c.Update(ctx, current.ID, u)
		assert.ErrorIs(t, err, photoblog.ErrStoreUnavailable)
		assert.Equal(t, photoblog.KindStoreUnavailable, photoblog.Kind(err))

		repo.AssertNotCalled(t, "Update")
	})

	t.Run("error old object missing aborts as conflict", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/old.jpg")
		u := photoblog.PhotoUpdate{ObjectKey: photoblog.Some("photos/new.jpg")}

		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/old.jpg").Return(photoblog.ErrObjectNotFound)

		_, err := c.Update(ctx, current.ID, u)
		assert.ErrorIs(t, err, photoblog.ErrConflictOnCleanup)

		repo.AssertNotCalled(t, "Update")
	})

	t.Run("error commit fails after old object deleted", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/old.jpg")
		u := photoblog.PhotoUpdate{ObjectKey: photoblog.Some("photos/new.jpg")}

		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/old.jpg").Return(nil)
		repo.On("Update", mock.Anything, current.ID, u).Return(photoblog.Photo{}, errors.New("connection lost"))

		_, err := c.Update(ctx, current.ID, u)
		assert.ErrorIs(t, err, photoblog.ErrConflictOnCleanup)
		assert.Equal(t, photoblog.KindConflictOnCleanup, photoblog.Kind(err))
	})

	t.Run("success commit survives cancelled request", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		current := storedPhoto("photos/old.jpg")
		u := photoblog.PhotoUpdate{ObjectKey: photoblog.Some("photos/new.jpg")}
		updated := current
		updated.ObjectKey = "photos/new.jpg"

		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/old.jpg").Return(nil).Run(func(mock.Arguments) { cancel() })
		repo.On("Update", mock.MatchedBy(func(cctx context.Context) bool { return cctx.Err() == nil }), current.ID, u).Return(updated, nil)

		got, err := c.Update(ctx, current.ID, u)
		require.NoError(t, err)
		assert.Equal(t, "photos/new.jpg", got.ObjectKey)
	})

	t.Run("error not found", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()
		id := uuid.New()

		repo.On("Get", ctx, id).Return(photoblog.Photo{}, photoblog.ErrNotFound)

		_, err := c.Update(ctx, id, photoblog.PhotoUpdate{ObjectKey: photoblog.Some("photos/new.jpg")})
		assert.ErrorIs(t, err, photoblog.ErrNotFound)

		store.AssertNotCalled(t, "Delete")
	})

	t.Run("error validation before any store call", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)

		_, err := c.Update(context.Background(), uuid.New(), photoblog.PhotoUpdate{Title: photoblog.Some("")})
		assert.ErrorIs(t, err, photoblog.ErrValidationFailed)

		repo.AssertNotCalled(t, "Get")
		store.AssertNotCalled(t, "Delete")
	})
}

func TestCoordinator_Delete(t *testing.T) {
	t.Run("success deletes object then row", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/abc.jpg")
		var order []string
		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/abc.jpg").Return(nil).Run(func(mock.Arguments) { order = append(order, "object") })
		repo.On("Delete", mock.Anything, current.ID).Return(nil).Run(func(mock.Arguments) { order = append(order, "row") })

		require.NoError(t, c.Delete(ctx, current.ID))
		assert.Equal(t, []string{"object", "row"}, order)
	})

	t.Run("success object already missing", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/abc.jpg")
		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/abc.jpg").Return(photoblog.ErrObjectNotFound)
		repo.On("Delete", mock.Anything, current.ID).Return(nil)

		require.NoError(t, c.Delete(ctx, current.ID))
		repo.AssertExpectations(t)
	})

	t.Run("error second delete is not found", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/abc.jpg")
		repo.On("Get", ctx, current.ID).Return(current, nil).Once()
		repo.On("Get", ctx, current.ID).Return(photoblog.Photo{}, photoblog.ErrNotFound).Once()
		store.On("Delete", ctx, "photos/abc.jpg").Return(nil).Once()
		repo.On("Delete", mock.Anything, current.ID).Return(nil).Once()

		require.NoError(t, c.Delete(ctx, current.ID))

		err := c.Delete(ctx, current.ID)
		assert.ErrorIs(t, err, photoblog.ErrNotFound)
		assert.Equal(t, photoblog.KindNotFound, photoblog.Kind(err))

		store.AssertNumberOfCalls(t, "Delete", 1)
	})

	t.Run("error object delete fails preserves row", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/abc.jpg")
		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/abc.jpg").Return(errors.New("503 slow down"))

		err := c.Delete(ctx, current.ID)
		assert.ErrorIs(t, err, photoblog.ErrStoreUnavailable)

		repo.AssertNotCalled(t, "Delete")
	})

	t.Run("error row delete fails after object deleted", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()

		current := storedPhoto("photos/abc.jpg")
		repo.On("Get", ctx, current.ID).Return(current, nil)
		store.On("Delete", ctx, "photos/abc.jpg").Return(nil)
		repo.On("Delete", mock.Anything, current.ID).Return(errors.New("database is locked"))

		err := c.Delete(ctx, current.ID)
		assert.ErrorIs(t, err, photoblog.ErrConflictOnCleanup)
		assert.Equal(t, photoblog.KindConflictOnCleanup, photoblog.Kind(err))
	})

	t.Run("error catalog unavailable", func(t *testing.T) {
		c, repo, store := NewCoordinator(t)
		ctx := context.Background()
		id := uuid.New()

		repo.On("Get", ctx, id).Return(photoblog.Photo{}, errors.New("dial tcp: refused"))

		err := c.Delete(ctx, id)
		assert.ErrorIs(t, err, photoblog.ErrStoreUnavailable)

		store.AssertNotCalled(t, "Delete")
	})
}

func TestCoordinator_Like(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c, repo, _ := NewCoordinator(t)
		ctx := context.Background()

		p := storedPhoto("photos/abc.jpg")
		p.Likes = 4
		repo.On("IncrementLikes", ctx, p.ID).Return(p, nil)

		got, err := c.Like(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Likes)
	})

	t.Run("error not found", func(t *testing.T) {
		c, repo, _ := NewCoordinator(t)
		ctx := context.Background()
		id := uuid.New()

		repo.On("IncrementLikes", ctx, id).Return(photoblog.Photo{}, photoblog.ErrNotFound)

		_, err := c.Like(ctx, id)
		assert.ErrorIs(t, err, photoblog.ErrNotFound)
	})
}
