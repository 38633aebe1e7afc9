// Package objectstore opens the configured object store backend.
//
// # Supported Backends
//
//   - filesystem: Local directory served by the photoblog server under /objects/
//   - s3: AWS S3 or an S3-compatible endpoint through aws-sdk-go-v2
//   - minio: MinIO or an S3-compatible endpoint through minio-go
//   - stowry: A stowry server using its native presigned URLs
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/objectstore/filesystem"
	"github.com/sagarc03/photoblog/objectstore/minio"
	"github.com/sagarc03/photoblog/objectstore/s3"
	"github.com/sagarc03/photoblog/objectstore/stowry"
)

// DefaultRegion is used for signing when no region is configured.
const DefaultRegion = "us-east-1"

// Config holds the settings for every backend. Only the fields of the
// selected Type are read.
type Config struct {
	// Type selects the backend: "filesystem", "s3", "minio" or "stowry"
	Type string `mapstructure:"type" validate:"required,oneof=filesystem s3 minio stowry"`
	// Path is the root directory of the filesystem backend
	Path string `mapstructure:"path"`
	// PublicURL is the externally reachable base URL of this server, used by the filesystem backend
	PublicURL string `mapstructure:"public_url"`
	// Bucket names the s3 or minio bucket
	Bucket string `mapstructure:"bucket"`
	// Region is the signing region
	Region string `mapstructure:"region"`
	// Endpoint is the s3 endpoint override, the minio host:port, or the stowry base URL
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// UseSSL connects to minio over https
	UseSSL bool `mapstructure:"use_ssl"`
	// UsePathStyle addresses s3 buckets in the path
	UsePathStyle bool `mapstructure:"use_path_style"`
	// CreateBucket makes the minio bucket on startup when missing
	CreateBucket bool `mapstructure:"create_bucket"`
}

// Backend is an opened object store.
type Backend struct {
	photoblog.ObjectStore
	// Local is set for the filesystem backend, whose objects the HTTP server serves itself.
	Local *filesystem.Store
	// Verifier checks presigned requests for Local.
	Verifier *photoblog.SignatureVerifier

	closer func() error
}

// Close releases resources held by the backend.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Open creates the backend selected by cfg.Type.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	switch cfg.Type {
	case "filesystem":
		return openFilesystem(cfg, region)
	case "s3":
		store, err := s3.New(ctx, s3.Config{
			Bucket:       cfg.Bucket,
			Region:       region,
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{ObjectStore: store}, nil
	case "minio":
		store, err := minio.New(ctx, minio.Config{
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			Bucket:       cfg.Bucket,
			Region:       region,
			UseSSL:       cfg.UseSSL,
			CreateBucket: cfg.CreateBucket,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{ObjectStore: store}, nil
	case "stowry":
		store, err := stowry.New(stowry.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{ObjectStore: store}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func openFilesystem(cfg Config, region string) (*Backend, error) {
	if cfg.Path == "" {
		return nil, errors.New("open filesystem store: path is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("open filesystem store: access key and secret key are required for signing")
	}

	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("open filesystem store: create root: %w", err)
	}

	root, err := os.OpenRoot(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open filesystem store: %w", err)
	}

	signer := photoblog.NewSigner(cfg.AccessKey, cfg.SecretKey, region, "s3")
	store, err := filesystem.NewStore(root, signer, cfg.PublicURL)
	if err != nil {
		_ = root.Close()
		return nil, err
	}

	accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
	verifier := photoblog.NewSignatureVerifier(region, "s3", func(k string) (string, bool) {
		if k != accessKey {
			return "", false
		}
		return secretKey, true
	})

	return &Backend{
		ObjectStore: store,
		Local:       store,
		Verifier:    verifier,
		closer:      root.Close,
	}, nil
}
