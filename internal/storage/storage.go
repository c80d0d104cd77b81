package storage

import (
	"context"
	"errors"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectStorage is the subset of bucket operations the corpus and media layers need.
type ObjectStorage interface {
	// GetObject reads a whole object. Corpus bundles are small YAML documents.
	GetObject(ctx context.Context, objectKey string) ([]byte, error)

	// PutObject writes a whole object, replacing any previous version.
	PutObject(ctx context.Context, objectKey string, body []byte, contentType string) error

	// ListKeys returns every key under prefix, in lexical order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}
