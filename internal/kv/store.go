// Package kv is a directory-backed string key→value store. Each key maps to
// one file; a write replaces the file's whole content. There is no
// transactionality beyond the atomicity of the final rename.
package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	dir string
}

// NewStore opens (creating if needed) a store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Set writes value under key, replacing any previous value wholesale. The
// value lands in a temp file first and is moved into place with a rename so
// a crash mid-write never leaves a torn value behind.
func (s *Store) Set(key, value string) error {
	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write value: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace value: %w", err)
	}
	return nil
}

// Get returns the value stored under key. The second return is false when
// the key has never been set (or was deleted).
func (s *Store) Get(key string) (string, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read value: %w", err)
	}
	return string(b), true, nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete value: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	// Keys are fixed constants in practice; the replacement guards against
	// a key ever escaping the store directory.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe)
}
