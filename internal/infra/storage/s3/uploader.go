// Package s3 stores listing and chat media in S3-compatible buckets through
// MinIO. Each Client serves exactly one bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrNotConfigured = errors.New("s3: media storage is not configured")
	ErrForeignURL    = errors.New("s3: url does not belong to this bucket")
)

// Uploader stores content and returns its public URL. size is -1 when unknown.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (publicURL string, err error)
}

// Remover deletes an object previously returned by Upload.
type Remover interface {
	Remove(ctx context.Context, publicURL string) error
}

// Storage is a bucket that supports both operations.
type Storage interface {
	Uploader
	Remover
}

type Client struct {
	bucket         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// Options configure one bucket client. PublicBaseURL defaults to Endpoint.
type Options struct {
	Endpoint      string
	UseSSL        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	minioClient, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(opts.PublicBaseURL)
	if base == "" {
		base = endpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// Upload creates the bucket with a public-read policy on first use, since
// listing and chat media are served straight to browsers.
func (c *Client) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if reader == nil {
		return "", errors.New("s3: reader is required")
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if size <= 0 {
		size = -1
	}
	info, err := c.client.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("s3: put %s/%s: %w", c.bucket, key, err)
	}
	publicURL := c.objectURL(key)
	c.logger.Debug("media stored", "bucket", c.bucket, "key", key, "bytes", info.Size)
	return publicURL, nil
}

// Remove deletes the object behind publicURL. A missing object is not an error.
func (c *Client) Remove(ctx context.Context, publicURL string) error {
	key, ok := c.keyOf(publicURL)
	if !ok {
		return ErrForeignURL
	}
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove %s/%s: %w", c.bucket, key, err)
	}
	c.logger.Debug("media removed", "bucket", c.bucket, "key", key)
	return nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket %s: %w", c.bucket, err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket %s: %w", c.bucket, err)
			return
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, c.bucket)
		if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: set bucket policy: %w", err)
			return
		}
		c.logger.Info("media bucket created", "bucket", c.bucket)
	})
	return c.bucketInitErr
}

func (c *Client) objectURL(key string) string {
	return objectURL(c.publicBaseURL, c.bucket, key)
}

func (c *Client) keyOf(publicURL string) (string, bool) {
	return keyOf(c.publicBaseURL, c.bucket, publicURL)
}

func objectURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.TrimLeft(key, "/"))
}

func keyOf(base, bucket, publicURL string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/" + bucket + "/"
	key, ok := strings.CutPrefix(publicURL, prefix)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func hostOf(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

// NoopUploader is used when no S3 endpoint is configured; every upload fails
// with ErrNotConfigured and removal is a no-op.
type NoopUploader struct{}

func (NoopUploader) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", ErrNotConfigured
}

func (NoopUploader) Remove(context.Context, string) error { return nil }

var (
	_ Storage = (*Client)(nil)
	_ Storage = NoopUploader{}
)
