// Package gcs stores objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	objstore "github.com/mrlokans/bookclub/internal/storage"
)

const defaultPublicBase = "https://storage.googleapis.com"

type Config struct {
	Bucket    string
	ProjectID string
	// Endpoint points the client at an emulator such as fake-gcs-server.
	Endpoint  string
	PublicURL string
}

type Client struct {
	client    *storage.Client
	bucket    string
	publicURL string
}

var _ objstore.Client = (*Client)(nil)

// New creates a GCS client using application default credentials, or no
// authentication when an emulator endpoint is configured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.Endpoint != "" {
		opts = []option.ClientOption{option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication()}
	}
	cli, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Client{client: cli, bucket: cfg.Bucket, publicURL: publicBase(cfg)}, nil
}

func publicBase(cfg Config) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	return objstore.JoinURL(defaultPublicBase, cfg.Bucket)
}

func (c *Client) List(ctx context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var objects []objstore.ObjectInfo
	it := c.client.Bucket(c.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, objstore.ObjectInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			ContentType:  attrs.ContentType,
			ETag:         attrs.Etag,
			LastModified: attrs.Updated,
		})
	}
	return objects, nil
}

func (c *Client) Upload(ctx context.Context, key string, content io.Reader, _ int64, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := c.client.Bucket(c.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.PredefinedACL = "publicRead"
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := c.client.Bucket(c.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, c.bucket, err)
	}
	return nil
}

func (c *Client) PublicURL(key string) string {
	return objstore.JoinURL(c.publicURL, key)
}

func (c *Client) Close() error {
	return c.client.Close()
}
