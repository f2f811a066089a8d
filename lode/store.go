// Package lode keeps peerdialog's data in Lode stores: the asset store the
// installer reads the peer from, and the journal of completed dialogs.
package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Store backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// StoreConfig selects a Lode store.
type StoreConfig struct {
	// Backend is "fs" (default) or "s3".
	Backend string
	// Path is the root directory for fs, or "bucket/prefix" for s3.
	Path string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. MinIO, R2). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	UsePathStyle bool
}

// Validate checks that required store configuration is present.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case "", BackendFS:
		if c.Path == "" {
			return errors.New("store path is required")
		}
	case BackendS3:
		if bucket, _ := ParseS3Path(c.Path); bucket == "" {
			return errors.New("S3 bucket is required")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want fs or s3)", c.Backend)
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// NewStoreFactory builds a store factory for the configured backend.
// The S3 backend uses the AWS SDK default credential chain (env vars,
// shared config, IAM role).
func NewStoreFactory(ctx context.Context, c StoreConfig) (lode.StoreFactory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Backend != BackendS3 {
		return lode.NewFSFactory(c.Path), nil
	}

	var opts []func(*config.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapInitError(fmt.Errorf("failed to load AWS config: %w", err), c.Path)
	}

	var s3Opts []func(*s3.Options)
	if c.Endpoint != "" {
		endpoint := c.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if c.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	s3Client := s3.NewFromConfig(awsConfig, s3Opts...)

	bucket, prefix := ParseS3Path(c.Path)
	return func() (lode.Store, error) {
		return lodes3.New(s3Client, lodes3.Config{
			Bucket: bucket,
			Prefix: prefix,
		})
	}, nil
}
