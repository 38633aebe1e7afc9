// Package minio provides an object store for MinIO and other S3-compatible
// services using minio-go.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/photoblog"
)

// Config holds the settings for a MinIO bucket.
type Config struct {
	// Endpoint is host[:port] without scheme.
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// CreateBucket makes the bucket on startup when it does not exist.
	CreateBucket bool
}

// Store implements photoblog.ObjectStore over one bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO client and returns a ready-to-use Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("new minio store: endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio store: create client: %w", err)
	}

	if cfg.CreateBucket {
		if err := ensureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
			return nil, fmt.Errorf("new minio store: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	slog.Info("created bucket", "bucket", bucket)
	return nil
}

// Put streams content to the bucket under key. size may be -1 when unknown,
// in which case minio-go buffers the upload.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Get opens the object under key. The object is stat'ed first so that a
// missing key is reported here and not on the first read.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("get object %q: %w", key, photoblog.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}

	return obj, nil
}

// Delete removes the object under key. RemoveObject succeeds for missing
// keys, so the object is checked first to report ErrObjectNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("delete object %q: %w", key, photoblog.ErrObjectNotFound)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}

// PresignPut returns a presigned PUT URL. MinIO does not sign the content
// type into query-presigned PUTs; the client must still send it.
func (s *Store) PresignPut(ctx context.Context, key, _ string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign put %q: %w", key, err)
	}
	return u.String(), nil
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", key, err)
	}
	return u.String(), nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchBucket" {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
