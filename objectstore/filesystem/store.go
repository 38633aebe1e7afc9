// Package filesystem provides a local directory object store. Objects are
// served back by the photoblog HTTP server under /objects/ and authorized with
// AWS Signature V4 presigned URLs.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/photoblog"
)

// RoutePrefix is the path under which the HTTP server exposes stored objects.
const RoutePrefix = "/objects/"

// Store keeps objects as files below a sandboxed root directory.
type Store struct {
	root    *os.Root
	signer  *photoblog.Signer
	baseURL *url.URL
}

// NewStore creates a Store. Presigned URLs point at publicURL + RoutePrefix + key
// and are signed by signer.
func NewStore(root *os.Root, signer *photoblog.Signer, publicURL string) (*Store, error) {
	if root == nil {
		return nil, errors.New("new filesystem store: root is required")
	}
	if signer == nil {
		return nil, errors.New("new filesystem store: signer is required")
	}

	u, err := url.Parse(strings.TrimSuffix(publicURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("new filesystem store: parse public url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("new filesystem store: public url %q must be absolute", publicURL)
	}
	if u.Path != "" {
		return nil, fmt.Errorf("new filesystem store: public url %q must not have a path", publicURL)
	}

	return &Store{root: root, signer: signer, baseURL: u}, nil
}

// Open opens the object stored under key for reading.
func (s *Store) Open(ctx context.Context, key string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !photoblog.IsValidKey(key) {
		return nil, fmt.Errorf("open %q: %w", key, photoblog.ErrValidationFailed)
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %q: %w", key, photoblog.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("open %q: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %q: %w", key, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %q: %w", key, photoblog.ErrObjectNotFound)
	}

	return f, nil
}

// Get opens the object stored under key.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.Open(ctx, key)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content under key using a temp file and rename.
// When size is not negative the content must be exactly size bytes long.
// The content type is not persisted; it is derived from the key extension on read.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !photoblog.IsValidKey(key) {
		return fmt.Errorf("put %q: %w", key, photoblog.ErrValidationFailed)
	}

	tmpFile := tmpFileName()
	t, err := s.root.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("put %q: open temp file: %w", key, err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return fmt.Errorf("put %q: copy contents: %w", key, err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("put %q: %w: got %d bytes, want %d", key, photoblog.ErrValidationFailed, written, size)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("put %q: sync: %w", key, err)
	}

	if destDir := filepath.Dir(key); destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("put %q: create directories: %w", key, err)
		}
	}

	if err := s.root.Rename(tmpFile, key); err != nil {
		return fmt.Errorf("put %q: rename: %w", key, err)
	}

	success = true
	return nil
}

// Delete removes the object stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !photoblog.IsValidKey(key) {
		return fmt.Errorf("delete %q: %w", key, photoblog.ErrValidationFailed)
	}

	if err := s.root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %q: %w", key, photoblog.ErrObjectNotFound)
		}
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Exists reports whether a regular file is stored under key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !photoblog.IsValidKey(key) {
		return false, fmt.Errorf("exists %q: %w", key, photoblog.ErrValidationFailed)
	}

	info, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("exists %q: %w", key, err)
	}

	return info.Mode().IsRegular(), nil
}

// PresignPut returns a signed PUT URL for key. A non-empty contentType is
// signed, so the upload must carry the same Content-Type header.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	var headers http.Header
	if contentType != "" {
		headers = http.Header{"Content-Type": {contentType}}
	}
	return s.presign(ctx, http.MethodPut, key, ttl, headers)
}

// PresignGet returns a signed GET URL for key.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.presign(ctx, http.MethodGet, key, ttl, nil)
}

func (s *Store) presign(ctx context.Context, method, key string, ttl time.Duration, headers http.Header) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !photoblog.IsValidKey(key) {
		return "", fmt.Errorf("presign %q: %w", key, photoblog.ErrValidationFailed)
	}

	u := *s.baseURL
	u.Path = RoutePrefix + key

	signed, err := s.signer.PresignHeaders(method, &u, ttl, headers)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return signed, nil
}

// ContentType returns the MIME type served for key, based on its extension.
func ContentType(key string) string {
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
