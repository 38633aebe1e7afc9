package photoblog

import "errors"

var (
	// ErrValidationFailed is returned when caller input is malformed or violates a field constraint
	ErrValidationFailed = errors.New("validation failed")
	// ErrNotFound is returned when a photo record does not exist
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable is returned when the object store or relational store cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrConflictOnCleanup is returned when the two stores were left out of sync
	ErrConflictOnCleanup = errors.New("conflict on cleanup")
	// ErrObjectNotFound is returned by object stores when a key has no object
	ErrObjectNotFound = errors.New("object not found")
	// ErrUnauthorized is returned when a presigned request fails verification
	ErrUnauthorized = errors.New("unauthorized")
)

// Error kinds reported to callers.
const (
	KindValidationFailed  = "validation_failed"
	KindNotFound          = "not_found"
	KindStoreUnavailable  = "store_unavailable"
	KindConflictOnCleanup = "conflict_on_cleanup"
	KindUnauthorized      = "unauthorized"
)

// Kind classifies err into one of the stable error kinds.
// A conflict wins over every other kind because it means the stores diverged.
// Unknown errors are reported as store_unavailable.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrConflictOnCleanup):
		return KindConflictOnCleanup
	case errors.Is(err, ErrValidationFailed):
		return KindValidationFailed
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindStoreUnavailable
	}
}
