package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/seedvault/internal/fsutil"
)

// Local is a Destination rooted at a directory on the local filesystem.
// Keys map directly to relative paths.
type Local struct {
	root string
}

// NewLocal creates a local destination rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Local{root: dir}, nil
}

// Write implements Destination.
func (l *Local) Write(_ context.Context, key string, data []byte) error {
	path := filepath.Join(l.root, filepath.FromSlash(key))
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Read implements Destination.
func (l *Local) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// List implements Destination.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists implements Destination.
func (l *Local) Exists(ctx context.Context, prefix string) (bool, error) {
	keys, err := l.List(ctx, prefix)
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}
