package driven

import (
	"context"
	"io"
)

// FileStore holds the original uploaded files (S3-compatible object storage)
type FileStore interface {
	// Put uploads an object under key
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens an object for reading. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks the bucket is reachable
	Ping(ctx context.Context) error
}
