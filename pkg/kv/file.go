package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sdassow/atomic"
)

// FileStore keeps one file per key below rootDir. Writes go through a
// temporary file that is renamed over the target, so readers see either the
// old or the new content.
type FileStore struct {
	rootDir string
}

func NewFileStore(rootDir string) *FileStore {
	return &FileStore{rootDir: rootDir}
}

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := f.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read file %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", key, err)
	}
	return data, nil
}

func (f *FileStore) Set(ctx context.Context, key string, value []byte) error {
	fullPath, err := f.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	if err := atomic.WriteFile(fullPath, bytes.NewReader(value), atomic.DefaultFileMode(0644)); err != nil {
		return fmt.Errorf("write file %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) resolve(key string) (string, error) {
	rel := filepath.Clean(strings.TrimPrefix(key, "/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return filepath.Join(f.rootDir, rel), nil
}
