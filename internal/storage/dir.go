package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// DirStorage keeps snapshots as files under one directory. Writes are
// atomic, so readers never see a partial snapshot.
type DirStorage struct {
	dir string
}

func NewDirStorage(dir string) (*DirStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &DirStorage{dir: dir}, nil
}

func (s *DirStorage) Name() string { return "dir" }

func (s *DirStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := atomic.WriteFile(filepath.Join(s.dir, key), r); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *DirStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

// checkKey allows flat object names only.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return nil
}
