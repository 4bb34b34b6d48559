package adapter

import (
	"io/fs"
	"os"
)

// FileSystem defines an interface for file system operations to enable mocking
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem,File=MockFile
type FileSystem interface {
	// Stat returns file info for the named file
	Stat(name string) (fs.FileInfo, error)

	// ReadFile reads the named file
	ReadFile(name string) ([]byte, error)

	// MkdirAll creates a directory along with any missing parents
	MkdirAll(path string, perm fs.FileMode) error

	// CreateTemp creates a new temporary file in dir
	CreateTemp(dir, pattern string) (File, error)

	// Link creates newname as a hard link to oldname; it fails if newname exists
	Link(oldname, newname string) error

	// Remove removes the named file or directory
	Remove(name string) error
}

// File defines an interface for file operations
type File interface {
	Name() string
	Write(p []byte) (int, error)
	Sync() error
	Close() error
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

func (r *RealFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (r *RealFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec,G304
}

func (r *RealFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (r *RealFileSystem) CreateTemp(dir, pattern string) (File, error) {
	return os.CreateTemp(dir, pattern)
}

func (r *RealFileSystem) Link(oldname, newname string) error {
	return os.Link(oldname, newname)
}

func (r *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}
