package photoblog

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Photo is a catalog entry bound to one stored object.
type Photo struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ObjectKey   string    `json:"objectKey"`
	Tags        []string  `json:"tags"`
	Location    string    `json:"location,omitempty"`
	Camera      string    `json:"camera,omitempty"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreatePhoto holds the fields a caller supplies when registering a photo.
type CreatePhoto struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=500"`
	ObjectKey   string   `json:"objectKey" validate:"required,max=1024,objectkey"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location" validate:"max=255"`
	Camera      string   `json:"camera" validate:"max=255"`
}

// PhotoUpdate is a partial update. Only fields with Set == true are applied.
// A set Location or Camera holding "" clears the field. A set Tags holding
// an empty slice clears all tags.
type PhotoUpdate struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[string]   `json:"description"`
	ObjectKey   Optional[string]   `json:"objectKey"`
	Tags        Optional[[]string] `json:"tags"`
	Location    Optional[string]   `json:"location"`
	Camera      Optional[string]   `json:"camera"`
}

// IsEmpty reports whether no field is set.
func (u PhotoUpdate) IsEmpty() bool {
	return !u.Title.Set && !u.Description.Set && !u.ObjectKey.Set &&
		!u.Tags.Set && !u.Location.Set && !u.Camera.Set
}

// Filter narrows catalog queries. Empty fields do not filter.
type Filter struct {
	// Search matches title or description, case-insensitively, as a substring.
	Search string
	// Tag matches records whose tag set contains exactly this tag.
	Tag string
}

// ListQuery is a paginated list request. Page is 1-indexed.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	Tag      string
}

// Filter returns the filter part of the query.
func (q ListQuery) Filter() Filter {
	return Filter{Search: q.Search, Tag: q.Tag}
}

// Grant is a time-limited URL authorizing one operation on one object.
type Grant struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadTarget is returned to a client about to upload an image.
type UploadTarget struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PhotoView is a photo as returned on read paths, with a fresh download grant.
type PhotoView struct {
	Photo
	ImageURL          string    `json:"imageUrl"`
	ImageURLExpiresAt time.Time `json:"imageUrlExpiresAt"`
}

// PhotoPage is one page of a filtered, newest-first listing.
type PhotoPage struct {
	Items      []PhotoView `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
	Total      int         `json:"total"`
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Tables holds configurable table names for catalog storage.
type Tables struct {
	Photos string `mapstructure:"photos" validate:"required"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Photos == "" {
		return errors.New("validate tables: photos table name cannot be empty")
	}

	if !IsValidTableName(t.Photos) {
		return fmt.Errorf("validate tables: invalid photos table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Photos)
	}

	return nil
}
