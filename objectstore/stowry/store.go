// Package stowry provides an object store backed by a stowry server, signing
// every request with stowry's native presigned URL scheme.
package stowry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/photoblog"
	stowrygo "github.com/sagarc03/stowry-go"
)

// DefaultTimeout is the HTTP client timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// requestTTL is the validity of the URLs the store signs for its own requests.
const requestTTL = time.Minute

// Config holds the settings for a stowry server.
type Config struct {
	// Endpoint is the server base URL, e.g. http://localhost:5708
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Store implements photoblog.ObjectStore against a stowry server.
type Store struct {
	endpoint   string
	accessKey  string
	secretKey  string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		s.httpClient = client
	}
}

// WithClock sets the clock used to timestamp signatures.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store for cfg.
func New(cfg Config, opts ...Option) (*Store, error) {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("new stowry store: endpoint %q must be an absolute url", cfg.Endpoint)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("new stowry store: access key and secret key are required")
	}

	s := &Store{
		endpoint:   endpoint,
		accessKey:  cfg.AccessKey,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// presign builds a stowry presigned URL for method on key.
func (s *Store) presign(method, key string, ttl time.Duration) (string, error) {
	expires := int64(ttl / time.Second)
	if expires <= 0 || expires > photoblog.MaxExpiresSeconds {
		return "", fmt.Errorf("presign: expires must be between 1 and %d seconds", photoblog.MaxExpiresSeconds)
	}

	path := "/" + strings.TrimPrefix(key, "/")
	timestamp := s.now().Unix()
	sig := stowrygo.Sign(s.secretKey, method, path, timestamp, expires)

	query := url.Values{}
	query.Set(stowrygo.StowryCredentialParam, s.accessKey)
	query.Set(stowrygo.StowryDateParam, strconv.FormatInt(timestamp, 10))
	query.Set(stowrygo.StowryExpiresParam, strconv.FormatInt(expires, 10))
	query.Set(stowrygo.StowrySignatureParam, sig)

	return s.endpoint + path + "?" + query.Encode(), nil
}

func (s *Store) do(ctx context.Context, method, key string, body io.Reader) (*http.Response, error) {
	signed, err := s.presign(method, key, requestTTL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, signed, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	signed, err := s.presign(http.MethodPut, key, requestTTL)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signed, content)
	if err != nil {
		return fmt.Errorf("put %q: create request: %w", key, err)
	}
	req.Header.Set("Content-Type", contentType)
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put %q: do request: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("put %q: %w", key, serverError(resp))
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.do(ctx, http.MethodGet, key, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("get %q: %w", key, photoblog.ErrObjectNotFound)
	default:
		defer func() { _ = resp.Body.Close() }()
		return nil, fmt.Errorf("get %q: %w", key, serverError(resp))
	}
}

func (s *Store) Delete(ctx context.Context, key string) error {
	resp, err := s.do(ctx, http.MethodDelete, key, http.NoBody)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("delete %q: %w", key, photoblog.ErrObjectNotFound)
	default:
		return fmt.Errorf("delete %q: %w", key, serverError(resp))
	}
}

// Exists issues a signed GET and discards the body; stowry serves no HEAD route.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.do(ctx, http.MethodGet, key, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("exists %q: %w", key, serverError(resp))
	}
}

func (s *Store) PresignPut(ctx context.Context, key, _ string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.presign(http.MethodPut, key, ttl)
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.presign(http.MethodGet, key, ttl)
}

func serverError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
}
