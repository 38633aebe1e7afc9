package photoblog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultUploadTTL is how long an upload grant stays valid.
	DefaultUploadTTL = 5 * time.Minute
	// DefaultDownloadTTL is how long a download grant stays valid.
	DefaultDownloadTTL = time.Hour
	// MaxGrantTTL is the longest validity a presigned URL may carry.
	MaxGrantTTL = MaxExpiresSeconds * time.Second
)

// ObjectStore defines the capabilities the catalog needs from an object store.
// Implementations exist for the local filesystem, AWS S3, MinIO and stowry.
//
// All methods accept a context for cancellation and timeout control.
type ObjectStore interface {
	// Put writes content under key, replacing any existing object.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: Object key, see IsValidKey
	//   - content: Object bytes
	//   - size: Length of content in bytes, or -1 if unknown
	//   - contentType: MIME type stored with the object
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error

	// Get opens the object stored under key.
	//
	// Returns:
	//   - io.ReadCloser: Object content, closed by the caller
	//   - error: ErrObjectNotFound if no object exists, or other store errors
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under key.
	//
	// Returns:
	//   - error: ErrObjectNotFound if no object exists, or other store errors
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// PresignPut returns a URL that lets its holder upload one object under key
	// with the given content type until ttl elapses. It does not touch the object.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// PresignGet returns a URL that lets its holder read the object under key
	// until ttl elapses. It does not touch the object.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// GrantConfig holds grant lifetimes. Zero values select the defaults.
type GrantConfig struct {
	UploadTTL   time.Duration
	DownloadTTL time.Duration
}

// GrantIssuer issues time-limited grants for single objects.
type GrantIssuer struct {
	store       ObjectStore
	uploadTTL   time.Duration
	downloadTTL time.Duration
	now         func() time.Time
}

// NewGrantIssuer creates a GrantIssuer over store.
func NewGrantIssuer(store ObjectStore, cfg GrantConfig) (*GrantIssuer, error) {
	if store == nil {
		return nil, errors.New("new grant issuer: object store is required")
	}

	uploadTTL := cfg.UploadTTL
	if uploadTTL == 0 {
		uploadTTL = DefaultUploadTTL
	}
	downloadTTL := cfg.DownloadTTL
	if downloadTTL == 0 {
		downloadTTL = DefaultDownloadTTL
	}

	if uploadTTL < time.Second || uploadTTL > MaxGrantTTL {
		return nil, fmt.Errorf("new grant issuer: upload ttl %s out of range (1s to %s)", uploadTTL, MaxGrantTTL)
	}
	if downloadTTL < time.Second || downloadTTL > MaxGrantTTL {
		return nil, fmt.Errorf("new grant issuer: download ttl %s out of range (1s to %s)", downloadTTL, MaxGrantTTL)
	}

	return &GrantIssuer{
		store:       store,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
		now:         time.Now,
	}, nil
}

// IssueUploadGrant returns a grant to PUT one object under key.
func (g *GrantIssuer) IssueUploadGrant(ctx context.Context, key, contentType string) (Grant, error) {
	if err := ctx.Err(); err != nil {
		return Grant{}, fmt.Errorf("issue upload grant: %w", err)
	}
	if !IsValidKey(key) {
		return Grant{}, fmt.Errorf("issue upload grant: %w: invalid key %q", ErrValidationFailed, key)
	}
	if contentType == "" {
		return Grant{}, fmt.Errorf("issue upload grant: %w: content type cannot be empty", ErrValidationFailed)
	}

	issuedAt := g.now()
	url, err := g.store.PresignPut(ctx, key, contentType, g.uploadTTL)
	if err != nil {
		return Grant{}, fmt.Errorf("issue upload grant %s: %w: %w", key, ErrStoreUnavailable, err)
	}

	return Grant{
		URL:       url,
		Method:    http.MethodPut,
		ObjectKey: key,
		ExpiresAt: issuedAt.Add(g.uploadTTL).UTC(),
	}, nil
}

// IssueDownloadGrant returns a grant to GET the object under key.
func (g *GrantIssuer) IssueDownloadGrant(ctx context.Context, key string) (Grant, error) {
	if err := ctx.Err(); err != nil {
		return Grant{}, fmt.Errorf("issue download grant: %w", err)
	}
	if !IsValidKey(key) {
		return Grant{}, fmt.Errorf("issue download grant: %w: invalid key %q", ErrValidationFailed, key)
	}

	issuedAt := g.now()
	url, err := g.store.PresignGet(ctx, key, g.downloadTTL)
	if err != nil {
		return Grant{}, fmt.Errorf("issue download grant %s: %w: %w", key, ErrStoreUnavailable, err)
	}

	return Grant{
		URL:       url,
		Method:    http.MethodGet,
		ObjectKey: key,
		ExpiresAt: issuedAt.Add(g.downloadTTL).UTC(),
	}, nil
}

// UploadTTL returns the validity of upload grants.
func (g *GrantIssuer) UploadTTL() time.Duration { return g.uploadTTL }

// DownloadTTL returns the validity of download grants.
func (g *GrantIssuer) DownloadTTL() time.Duration { return g.downloadTTL }
