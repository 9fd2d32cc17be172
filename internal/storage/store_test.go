package storage

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

// TestMemoryStore tests the in-memory store implementation
func TestMemoryStore(t *testing.T) {
	t.Run("new store is empty", func(t *testing.T) {
		store := NewMemoryStore()

		keys, err := store.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("Expected empty store, got %d keys", len(keys))
		}

		_, err = store.Get("nonexistent")
		if err != ErrKeyNotFound {
			t.Errorf("Expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("put and get values", func(t *testing.T) {
		store := NewMemoryStore()

		err := store.Put("key1", []byte("value1"))
		if err != nil {
			t.Fatalf("Failed to put value: %v", err)
		}

		value, err := store.Get("key1")
		if err != nil {
			t.Fatalf("Failed to get value: %v", err)
		}

		if !bytes.Equal(value, []byte("value1")) {
			t.Errorf("Expected 'value1', got %s", string(value))
		}
	})

	t.Run("overwrite existing key", func(t *testing.T) {
		store := NewMemoryStore()

		if err := store.Put("key1", []byte("value1")); err != nil {
			t.Fatalf("Failed to put initial value: %v", err)
		}
		if err := store.Put("key1", []byte("value2")); err != nil {
			t.Fatalf("Failed to overwrite value: %v", err)
		}

		value, err := store.Get("key1")
		if err != nil {
			t.Fatalf("Failed to get value: %v", err)
		}
		if !bytes.Equal(value, []byte("value2")) {
			t.Errorf("Expected 'value2', got %s", string(value))
		}
	})

	t.Run("delete values", func(t *testing.T) {
		store := NewMemoryStore()

		if err := store.Put("key1", []byte("value1")); err != nil {
			t.Fatalf("Failed to put value: %v", err)
		}
		if err := store.Delete("key1"); err != nil {
			t.Fatalf("Failed to delete value: %v", err)
		}

		if _, err := store.Get("key1"); err != ErrKeyNotFound {
			t.Errorf("Expected ErrKeyNotFound after delete, got %v", err)
		}
		if store.Has("key1") {
			t.Error("Has should report false after delete")
		}
	})

	t.Run("delete non-existent key", func(t *testing.T) {
		store := NewMemoryStore()

		if err := store.Delete("nonexistent"); err != nil {
			t.Errorf("Delete of non-existent key should not error, got %v", err)
		}
	})

	t.Run("list returns sorted keys", func(t *testing.T) {
		store := NewMemoryStore()

		for _, key := range []string{"2", "0", "1-1", "1"} {
			if err := store.Put(key, []byte(key)); err != nil {
				t.Fatalf("Failed to put %q: %v", key, err)
			}
		}

		keys, err := store.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		want := []string{"0", "1", "1-1", "2"}
		if len(keys) != len(want) {
			t.Fatalf("Expected %d keys, got %d", len(want), len(keys))
		}
		for i, key := range want {
			if keys[i] != key {
				t.Errorf("keys[%d] = %q, want %q", i, keys[i], key)
			}
		}
	})

	t.Run("stats", func(t *testing.T) {
		store := NewMemoryStore()

		store.Put("a", []byte("12345"))
		store.Put("b", []byte("123"))

		stats := store.Stats()
		if stats.Keys != 2 {
			t.Errorf("Expected 2 keys, got %d", stats.Keys)
		}
		if stats.Bytes != 8 {
			t.Errorf("Expected 8 bytes, got %d", stats.Bytes)
		}
	})

	t.Run("get returns a copy", func(t *testing.T) {
		store := NewMemoryStore()

		store.Put("key1", []byte("value"))
		value, _ := store.Get("key1")
		value[0] = 'X'

		again, _ := store.Get("key1")
		if !bytes.Equal(again, []byte("value")) {
			t.Errorf("Stored value was mutated through Get result: %s", again)
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		store := NewMemoryStore()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				key := fmt.Sprintf("key%d", n)
				store.Put(key, []byte("value"))
				store.Get(key)
				store.Has(key)
				store.List()
			}(i)
		}
		wg.Wait()

		stats := store.Stats()
		if stats.Keys != 10 {
			t.Errorf("Expected 10 keys after concurrent puts, got %d", stats.Keys)
		}
	})
}

// TestFileStore tests the file-backed store implementation
func TestFileStore(t *testing.T) {
	t.Run("missing directory is an empty store", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "never-created"))

		keys, err := store.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(keys) != 0 {
			t.Errorf("Expected no keys, got %v", keys)
		}

		if _, err := store.Get("0"); err != ErrKeyNotFound {
			t.Errorf("Expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("round trip through disk", func(t *testing.T) {
		store := NewFileStore(t.TempDir())

		if err := store.Put("0", []byte("AB")); err != nil {
			t.Fatalf("Failed to put value: %v", err)
		}
		if err := store.Put("0-1", []byte("AB")); err != nil {
			t.Fatalf("Failed to put replica value: %v", err)
		}

		value, err := store.Get("0")
		if err != nil {
			t.Fatalf("Failed to get value: %v", err)
		}
		if !bytes.Equal(value, []byte("AB")) {
			t.Errorf("Expected 'AB', got %s", value)
		}

		keys, err := store.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(keys) != 2 || keys[0] != "0" || keys[1] != "0-1" {
			t.Errorf("Expected [0 0-1], got %v", keys)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := NewFileStore(t.TempDir())

		store.Put("3", []byte("x"))
		if err := store.Delete("3"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete("3"); err != nil {
			t.Errorf("Second delete should not error, got %v", err)
		}
		if store.Has("3") {
			t.Error("Has should report false after delete")
		}
	})

	t.Run("rejects unsafe keys", func(t *testing.T) {
		store := NewFileStore(t.TempDir())

		for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
			if err := store.Put(key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Put(%q) = %v, want ErrInvalidKey", key, err)
			}
		}
	})

	t.Run("stats counts files and bytes", func(t *testing.T) {
		store := NewFileStore(t.TempDir())

		store.Put("0", []byte("AB"))
		store.Put("1", []byte("CDE"))

		stats := store.Stats()
		if stats.Keys != 2 {
			t.Errorf("Expected 2 keys, got %d", stats.Keys)
		}
		if stats.Bytes != 5 {
			t.Errorf("Expected 5 bytes, got %d", stats.Bytes)
		}
	})
}
