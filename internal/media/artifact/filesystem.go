package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/feral-file/ff-image-optimizer/internal/adapter"
	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/logger"
)

const (
	dirPerm     = 0o755
	tempPattern = ".artifact-*"
)

// fileSystemStore keeps artifacts as plain files below a media root
type fileSystemStore struct {
	root string
	fs   adapter.FileSystem
}

// NewFileSystemStore creates a Store rooted at the media directory
func NewFileSystemStore(root string, fileSystem adapter.FileSystem) Store {
	return &fileSystemStore{
		root: root,
		fs:   fileSystem,
	}
}

func (s *fileSystemStore) abs(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(p))
}

// Exists reports whether a regular file is stored at p
func (s *fileSystemStore) Exists(ctx context.Context, p string) (bool, error) {
	info, err := s.fs.Stat(s.abs(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return info.Mode().IsRegular(), nil
}

// Read returns the file content at p
func (s *fileSystemStore) Read(ctx context.Context, p string) ([]byte, error) {
	data, err := s.fs.ReadFile(s.abs(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, p)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// WriteIfAbsent writes data to a temp file next to the target and hard-links it
// into place. Link refuses to replace an existing file, so the first writer wins
// and readers never observe a partial artifact.
func (s *fileSystemStore) WriteIfAbsent(ctx context.Context, p string, data []byte) (bool, error) {
	exists, err := s.Exists(ctx, p)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	target := s.abs(p)
	dir := filepath.Dir(target)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", p, err)
	}

	tmp, err := s.fs.CreateTemp(dir, tempPattern)
	if err != nil {
		return false, fmt.Errorf("failed to create temp file for %s: %w", p, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err := s.fs.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.WarnCtx(ctx, "Failed to remove temp artifact", zap.String("path", tmpName), zap.Error(err))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("failed to sync %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", p, err)
	}

	if err := s.fs.Link(tmpName, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			logger.DebugCtx(ctx, "Artifact written concurrently, keeping existing", zap.String("path", p))
			return false, nil
		}
		return false, fmt.Errorf("failed to place %s: %w", p, err)
	}

	return true, nil
}
