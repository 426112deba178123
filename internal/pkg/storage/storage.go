package storage

import (
	"context"
	"io"
)

// Storage persists capture blobs under relative paths. Implementations
// must tolerate Delete on a path that no longer exists.
type Storage interface {
	// Save writes content at path, creating parent directories as needed.
	Save(ctx context.Context, path string, content io.Reader) error

	// Get opens the blob at path for reading. The caller closes it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the blob at path.
	Delete(ctx context.Context, path string) error
}
