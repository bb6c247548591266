package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/loft/finassist/core"
)

// Store locates and serves static assets by name.
type Store interface {
	// Locate returns the absolute location of the asset, or an error
	// matching ErrNotFound together with the location that was checked.
	Locate(ctx context.Context, name string) (string, error)
	// Open streams the asset content.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirStore serves assets from a directory on disk.
type DirStore struct {
	root string
}

// NewDirStore returns a store rooted at dir. The directory is created when it
// does not exist.
func NewDirStore(dir string) (*DirStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, core.ConfigErrorf("artifact.NewDirStore", "invalid assets dir %q: %v", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, core.ConfigErrorf("artifact.NewDirStore", "create assets dir %q: %v", abs, err)
	}
	return &DirStore{root: abs}, nil
}

// Root returns the absolute directory backing the store.
func (s *DirStore) Root() string { return s.root }

// Locate returns the absolute path of name if it exists. On a missing asset
// the returned path is still the one that was checked.
func (s *DirStore) Locate(_ context.Context, name string) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	return path, nil
}

// Open opens the asset for reading.
func (s *DirStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path, err := s.Locate(ctx, name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// resolve maps name into the root, rejecting escapes.
func (s *DirStore) resolve(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid asset name %q: %w", name, ErrNotFound)
	}
	return filepath.Join(s.root, clean), nil
}
