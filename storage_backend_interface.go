package packbit

import "context"

// StorageBackend defines the interface for archive storage. Archives can
// live on the local filesystem, in memory, or in S3-compatible object
// storage.
type StorageBackend interface {
	// Read reads an archive from storage.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write writes an archive to storage.
	Write(ctx context.Context, key string, data []byte) error

	// Delete removes an archive from storage.
	Delete(ctx context.Context, key string) error

	// List returns all archive keys matching a prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if an archive exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources.
	Close() error
}

// Ensure interfaces are implemented
var (
	_ StorageBackend = (*FileBackend)(nil)
	_ StorageBackend = (*MemoryBackend)(nil)
	_ StorageBackend = (*S3Backend)(nil)
)
