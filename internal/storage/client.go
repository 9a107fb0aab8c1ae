// Package storage abstracts the object store that holds uploaded images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrDisabled is returned when no storage backend is configured.
var ErrDisabled = errors.New("object storage is not configured")

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// Client defines the object storage operations the application needs.
type Client interface {
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Upload writes content under key and makes it publicly readable.
	// size may be -1 when unknown.
	Upload(ctx context.Context, key string, content io.Reader, size int64, contentType string) error

	// Delete removes a single object.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the URL under which key is served.
	PublicURL(key string) string
}

// DeletePrefix removes every object under prefix.
func DeletePrefix(ctx context.Context, client Client, prefix string) error {
	objects, err := client.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	for _, obj := range objects {
		if err := client.Delete(ctx, obj.Key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
	}
	return nil
}

// ReplacePrefix clears prefix and uploads content as prefix/name, returning
// its public URL. name goes through SanitizeObjectName first.
func ReplacePrefix(ctx context.Context, client Client, prefix, name string, content io.Reader, size int64) (string, error) {
	if err := DeletePrefix(ctx, client, prefix); err != nil {
		return "", err
	}
	key := path.Join(prefix, SanitizeObjectName(name))
	if err := client.Upload(ctx, key, content, size, ContentTypeFor(key)); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return client.PublicURL(key), nil
}

// ContentTypeFor guesses an image content type from the key extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// JoinURL joins a base URL and a key with exactly one slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
