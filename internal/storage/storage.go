package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Package storage contains object storage abstractions for S3-compatible
// backends. Implementations must avoid using local disk and rely on
// streaming I/O only.

// ErrObjectMissing is returned by Get when the key does not resolve to a
// stored object. Callers use it to distinguish a missing artifact from a
// backend failure.
var ErrObjectMissing = errors.New("object missing")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
// URL is the stable, publicly dereferenceable locator for the object; the
// storage key can be recovered from it with KeyFromURL.
type ObjectInfo struct {
	Key          string
	URL          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
// Methods use context and streaming readers/writers; no local disk is used.
type Storage interface {
	// Put uploads an object under the given key and returns its info,
	// including the public locator.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its
	// info. Returns ErrObjectMissing when the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// KeyFromURL recovers a storage key from a public locator by taking its last
// two path segments, e.g. ".../skills/abc-processed.md" -> "skills/abc-processed.md".
// The locator shape is produced by Put and must stay consistent with this
// derivation.
func KeyFromURL(locator string) string {
	parts := strings.Split(strings.TrimSuffix(locator, "/"), "/")
	if len(parts) < 2 {
		return locator
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
