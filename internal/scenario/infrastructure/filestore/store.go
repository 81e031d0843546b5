package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store writes scenario documents into one local directory.
type Store struct {
	dir string
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filestore: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Put writes data to dir/name, replacing an existing file.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("filestore: invalid document name %q", name)
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}
