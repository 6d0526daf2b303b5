// Package statusfile persists the probe status file.
package statusfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const filePerm os.FileMode = 0o644

// Store defines the persistence contract for the status file.
type Store interface {
	// Write replaces the file content.
	Write(ctx context.Context, content string) error
	// Read returns the current content.
	Read(ctx context.Context) (string, error)
	// Exists reports whether the file is present.
	Exists(ctx context.Context) (bool, error)
	// Remove deletes the file. A missing file is not an error.
	Remove(ctx context.Context) error
	// Path returns the location of the file.
	Path() string
}

// FileStore keeps the status file on an afero filesystem.
type FileStore struct {
	fs   afero.Fs
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a Store for path on fsys. A nil fsys means the OS filesystem.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	return &FileStore{fs: fsys, path: filepath.Clean(path)}
}

func (s *FileStore) Path() string {
	return s.path
}

// Write stores content in a temporary file and renames it over the status
// file, so readers never observe a partially written file.
func (s *FileStore) Write(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, name := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpName, filePerm); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func (s *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return afero.Exists(s.fs, s.path)
}

func (s *FileStore) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
