// ABOUTME: FileKV stores each key as its own file in a directory, replaced atomically on every write.
// ABOUTME: Keys are restricted to a safe character set so they map directly to file names.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileKV is a directory-backed KV.
type FileKV struct {
	dir string
}

// NewFileKV creates the directory if needed and returns a KV rooted there.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create kv dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Dir returns the backing directory.
func (f *FileKV) Dir() string {
	return f.dir
}

func (f *FileKV) path(key string) (string, error) {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid kv key: %q", key)
	}
	return filepath.Join(f.dir, key), nil
}

func (f *FileKV) GetItem(key string) (string, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read kv %s: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileKV) SetItem(key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(p, []byte(value)); err != nil {
		return fmt.Errorf("write kv %s: %w", key, err)
	}
	return nil
}
