package artifact

import (
	"context"
)

// Store persists optimized artifacts under media-relative paths.
// Writes are write-once: an existing object is never replaced.
//
//go:generate mockgen -source=store.go -destination=../../mocks/artifact_store.go -package=mocks -mock_names=Store=MockArtifactStore
type Store interface {
	// Exists reports whether an object is stored at path
	Exists(ctx context.Context, path string) (bool, error)

	// Read returns the object content, or domain.ErrArtifactNotFound
	Read(ctx context.Context, path string) ([]byte, error)

	// WriteIfAbsent stores data at path unless an object already exists.
	// It returns true when this call wrote the object and false when an existing
	// object was kept; the latter is not an error.
	WriteIfAbsent(ctx context.Context, path string, data []byte) (bool, error)
}
