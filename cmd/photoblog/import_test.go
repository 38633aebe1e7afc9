package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sagarc03/photoblog"
)

// deleteSpy records Delete calls; other ObjectStore methods are not used.
type deleteSpy struct {
	photoblog.ObjectStore
	mock.Mock
}

func (s *deleteSpy) Delete(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

func TestRemoveUploaded(t *testing.T) {
	createErr := errors.New("commit failed")

	t.Run("success returns the create error", func(t *testing.T) {
		store := new(deleteSpy)
		store.On("Delete", mock.Anything, "photos/a.jpg").Return(nil)

		err := removeUploaded(context.Background(), store, "photos/a.jpg", createErr)

		assert.ErrorIs(t, err, createErr)
		assert.NotErrorIs(t, err, photoblog.ErrConflictOnCleanup)
		store.AssertExpectations(t)
	})

	t.Run("error failed delete is a cleanup conflict", func(t *testing.T) {
		store := new(deleteSpy)
		deleteErr := errors.New("bucket unreachable")
		store.On("Delete", mock.Anything, "photos/a.jpg").Return(deleteErr)

		err := removeUploaded(context.Background(), store, "photos/a.jpg", createErr)

		assert.ErrorIs(t, err, createErr)
		assert.ErrorIs(t, err, deleteErr)
		assert.ErrorIs(t, err, photoblog.ErrConflictOnCleanup)
		assert.Equal(t, photoblog.KindConflictOnCleanup, photoblog.Kind(err))
		assert.Contains(t, err.Error(), "photos/a.jpg")
	})

	t.Run("success delete survives a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		store := new(deleteSpy)
		store.On("Delete", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), "photos/a.jpg").Return(nil)

		err := removeUploaded(ctx, store, "photos/a.jpg", createErr)

		assert.ErrorIs(t, err, createErr)
		store.AssertExpectations(t)
	})
}
