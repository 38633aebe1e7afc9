package photoblog

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Coordinator sequences object store and catalog operations so that every
// inconsistency it cannot prevent is reported as ErrConflictOnCleanup.
type Coordinator struct {
	repo           PhotoRepo
	store          ObjectStore
	grants         *GrantIssuer
	keys           KeyScheme
	verifier       ClaimVerifier
	cleanupTimeout time.Duration
}

// CoordinatorConfig holds configuration options for Coordinator.
type CoordinatorConfig struct {
	Keys           KeyScheme
	CleanupTimeout time.Duration // Timeout for the commit after an object was removed (default: 30s)
	// Verifier, when set, is asked whether a claimed object exists before a
	// create or key replacement is committed. Nil trusts the client.
	Verifier ClaimVerifier
}

func NewCoordinator(repo PhotoRepo, store ObjectStore, grants *GrantIssuer, cfg CoordinatorConfig) (*Coordinator, error) {
	if repo == nil || store == nil || grants == nil {
		return nil, errors.New("new coordinator: repo, store and grant issuer are required")
	}
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	keys := cfg.Keys
	if keys.Prefix == "" {
		keys.Prefix = DefaultKeyPrefix
	}
	return &Coordinator{
		repo:           repo,
		store:          store,
		grants:         grants,
		keys:           keys,
		verifier:       cfg.Verifier,
		cleanupTimeout: cleanupTimeout,
	}, nil
}

// IssueUploadTarget generates a fresh object key for filename and returns
// an upload grant for it. The object is not touched.
//
// Error types returned:
//   - ErrValidationFailed: Empty filename, missing extension or non-image content type
//   - ErrStoreUnavailable: The grant could not be constructed
func (s *Coordinator) IssueUploadTarget(ctx context.Context, filename, contentType string) (UploadTarget, error) {
	if err := ctx.Err(); err != nil {
		return UploadTarget{}, fmt.Errorf("issue upload target: %w", err)
	}

	if strings.TrimSpace(filename) == "" {
		return UploadTarget{}, fmt.Errorf("issue upload target: %w: filename is required", ErrValidationFailed)
	}
	if strings.TrimSpace(contentType) == "" {
		return UploadTarget{}, fmt.Errorf("issue upload target: %w: content type is required", ErrValidationFailed)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return UploadTarget{}, fmt.Errorf("issue upload target: %w: content type %q is not an image type", ErrValidationFailed, contentType)
	}

	ext := ExtensionOf(filename)
	if ext == "" {
		return UploadTarget{}, fmt.Errorf("issue upload target: %w: filename %q has no extension", ErrValidationFailed, filename)
	}

	key, err := s.keys.NewKey(ext)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("issue upload target: %w", err)
	}

	grant, err := s.grants.IssueUploadGrant(ctx, key, contentType)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("issue upload target: %w", err)
	}

	return UploadTarget{
		UploadURL: grant.URL,
		ObjectKey: key,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// Create validates p and commits a catalog row bound to p.ObjectKey.
//
// Object existence is only checked when a ClaimVerifier is configured;
// otherwise the client's claim that the upload completed is trusted and a
// missing object is left for the Reconciler to find.
//
// Error types returned:
//   - ErrValidationFailed: Invalid fields, unverified object or object key already in use
//   - ErrStoreUnavailable: The catalog or verifier could not be reached
func (s *Coordinator) Create(ctx context.Context, p CreatePhoto) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, fmt.Errorf("create photo: %w", err)
	}

	p, err := ValidateCreate(p)
	if err != nil {
		return Photo{}, fmt.Errorf("create photo: %w", err)
	}

	if err := s.verifyClaim(ctx, p.ObjectKey); err != nil {
		return Photo{}, fmt.Errorf("create photo: %w", err)
	}

	photo, err := s.repo.Create(ctx, p)
	if err != nil {
		return Photo{}, fmt.Errorf("create photo: %w", catalogError(err))
	}

	return photo, nil
}

// Update applies a partial update to the photo with the given id.
//
// When u replaces the object key, the old object is deleted before the row
// is committed. If that delete fails nothing is changed. If the commit fails
// after the old object is gone, ErrConflictOnCleanup is returned because the
// row now references a deleted object.
//
// Error types returned:
//   - ErrValidationFailed: Invalid fields, unverified object or object key already in use
//   - ErrNotFound: No photo with id
//   - ErrStoreUnavailable: A store could not be reached, nothing was changed
//   - ErrConflictOnCleanup: The stores are known to be out of sync
func (s *Coordinator) Update(ctx context.Context, id uuid.UUID, u PhotoUpdate) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, fmt.Errorf("update photo %s: %w", id, err)
	}

	u, err := ValidateUpdate(u)
	if err != nil {
		return Photo{}, fmt.Errorf("update photo %s: %w", id, err)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Photo{}, fmt.Errorf("update photo %s: %w", id, catalogError(err))
	}

	if u.ObjectKey.Set && u.ObjectKey.Value == current.ObjectKey {
		u.ObjectKey = Optional[string]{}
	}

	if u.IsEmpty() {
		return current, nil
	}

	if !u.ObjectKey.Set {
		photo, updateErr := s.repo.Update(ctx, id, u)
		if updateErr != nil {
			return Photo{}, fmt.Errorf("update photo %s: %w", id, catalogError(updateErr))
		}
		return photo, nil
	}

	if err := s.verifyClaim(ctx, u.ObjectKey.Value); err != nil {
		return Photo{}, fmt.Errorf("update photo %s: %w", id, err)
	}

	if err := s.removeObject(ctx, current.ObjectKey); err != nil {
		return Photo{}, fmt.Errorf("update photo %s: replace object %s: %w", id, current.ObjectKey, err)
	}

	// The old object is gone; the commit must not be abandoned with the request.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()

	photo, err := s.repo.Update(commitCtx, id, u)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Photo{}, fmt.Errorf("update photo %s: %w", id, err)
		}
		return Photo{}, fmt.Errorf("update photo %s: object %s deleted but commit failed: %w: %w", id, current.ObjectKey, ErrConflictOnCleanup, err)
	}

	return photo, nil
}

// Delete removes the object bound to the photo and then the photo row.
//
// If the object cannot be deleted the row is preserved. An object that is
// already missing does not block the delete. If the row cannot be deleted
// after its object is gone, ErrConflictOnCleanup is returned.
//
// Error types returned:
//   - ErrNotFound: No photo with id, including a second delete of the same id
//   - ErrStoreUnavailable: A store could not be reached, nothing was changed
//   - ErrConflictOnCleanup: The row references an object that was deleted
func (s *Coordinator) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete photo %s: %w", id, err)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", id, catalogError(err))
	}

	deleteErr := s.store.Delete(ctx, current.ObjectKey)
	if deleteErr != nil && !errors.Is(deleteErr, ErrObjectNotFound) {
		return fmt.Errorf("delete photo %s: delete object %s: %w: %w", id, current.ObjectKey, ErrStoreUnavailable, deleteErr)
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()

	if err := s.repo.Delete(cleanupCtx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete photo %s: %w", id, err)
		}
		return fmt.Errorf("delete photo %s: object %s deleted but row remains: %w: %w", id, current.ObjectKey, ErrConflictOnCleanup, err)
	}

	return nil
}

// Like atomically increments the like counter of a photo.
func (s *Coordinator) Like(ctx context.Context, id uuid.UUID) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, fmt.Errorf("like photo %s: %w", id, err)
	}

	photo, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		return Photo{}, fmt.Errorf("like photo %s: %w", id, catalogError(err))
	}

	return photo, nil
}

// removeObject deletes the object bound to a row that is about to be rebound.
// A missing object means the row was already dangling and is reported as a conflict.
func (s *Coordinator) removeObject(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrObjectNotFound):
		return fmt.Errorf("%w: bound object is missing: %w", ErrConflictOnCleanup, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

func (s *Coordinator) verifyClaim(ctx context.Context, key string) error {
	if s.verifier == nil {
		return nil
	}
	ok, err := s.verifier.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("verify object %s: %w: %w", key, ErrStoreUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("verify object %s: %w: object has not been uploaded", key, ErrValidationFailed)
	}
	return nil
}

// catalogError keeps the kinds a catalog reports on purpose and classifies
// everything else as an unavailable store.
func catalogError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
