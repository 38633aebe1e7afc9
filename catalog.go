package photoblog

import (
	"context"

	"github.com/google/uuid"
)

// PhotoRepo defines the interface for persisting photo metadata.
// Implementations must handle concurrent access safely; IncrementLikes in
// particular must be a single atomic statement.
//
// All methods accept a context for cancellation and timeout control.
// Implementations should respect context cancellation and return appropriate errors.
type PhotoRepo interface {
	// Find returns one page of photos matching f, newest first, and the total
	// number of matching photos regardless of paging.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - f: Search matches title or description case-insensitively, Tag matches set membership
	//   - page: 1-indexed page number
	//   - pageSize: Number of items per page, greater than zero
	//
	// Returns:
	//   - []Photo: Matching photos ordered by creation time descending, never nil
	//   - int: Total number of matching photos
	//   - error: Any database error
	Find(ctx context.Context, f Filter, page, pageSize int) ([]Photo, int, error)

	// Get retrieves a photo by id.
	//
	// Returns:
	//   - Photo: The stored record
	//   - error: ErrNotFound if id doesn't exist, or other database errors
	Get(ctx context.Context, id uuid.UUID) (Photo, error)

	// Create inserts a new photo. The repo assigns the id and timestamps.
	//
	// Returns:
	//   - Photo: The stored record
	//   - error: ErrValidationFailed if the object key is already referenced, or other database errors
	Create(ctx context.Context, p CreatePhoto) (Photo, error)

	// Update applies the set fields of u and refreshes the update timestamp.
	//
	// Returns:
	//   - Photo: The stored record after the update
	//   - error: ErrNotFound if id doesn't exist, ErrValidationFailed if the new
	//     object key is already referenced, or other database errors
	Update(ctx context.Context, id uuid.UUID, u PhotoUpdate) (Photo, error)

	// Delete removes a photo by id.
	//
	// Returns:
	//   - error: ErrNotFound if id doesn't exist, or other database errors
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementLikes atomically adds one to the like counter.
	//
	// Returns:
	//   - Photo: The stored record after the increment
	//   - error: ErrNotFound if id doesn't exist, or other database errors
	IncrementLikes(ctx context.Context, id uuid.UUID) (Photo, error)

	// ListDistinctTags returns every tag used by any photo, deduplicated and
	// sorted byte-wise. It returns an empty slice, not nil, when there are none.
	ListDistinctTags(ctx context.Context) ([]string, error)
}

// ClaimVerifier reports whether an object exists under a key. Every ObjectStore satisfies it.
type ClaimVerifier interface {
	Exists(ctx context.Context, key string) (bool, error)
}
