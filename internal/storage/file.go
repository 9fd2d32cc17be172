package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidKey is returned when a key cannot be used as a file name.
var ErrInvalidKey = errors.New("invalid key")

// FileStore implements Store with one file per key under a root directory.
// The directory is created on the first write. Values are written to a
// temporary file and renamed into place so a crashed write never leaves a
// torn value behind.
type FileStore struct {
	mu   sync.RWMutex
	root string
}

// NewFileStore creates a file-backed store rooted at dir.
// The directory itself is created lazily on the first Put.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// checkKey rejects keys that would escape the root directory or collide
// with temp files. Shard keys ("3", "3-1") and the index document key
// always pass.
func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.root, key)
}

// Get reads the value stored for key.
func (f *FileStore) Get(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	value, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

// Put writes the value for key, creating the root directory if needed.
func (f *FileStore) Put(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	// Write-then-rename keeps readers from ever seeing a partial value.
	tmp, err := os.CreateTemp(f.root, ".put-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes the value for key. Deleting a missing key is not an error.
func (f *FileStore) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Has reports whether a key exists.
func (f *FileStore) Has(key string) bool {
	if checkKey(key) != nil {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	_, err := os.Stat(f.path(key))
	return err == nil
}

// List returns all keys in ascending order.
// A missing root directory is an empty store, not an error.
func (f *FileStore) List() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list store: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Stats returns storage statistics.
func (f *FileStore) Stats() StoreStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.root)
	if err != nil {
		return StoreStats{}
	}

	stats := StoreStats{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		stats.Keys++
		if info, err := e.Info(); err == nil {
			stats.Bytes += int(info.Size())
		}
	}
	return stats
}
