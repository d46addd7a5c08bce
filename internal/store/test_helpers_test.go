package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedStore creates a store holding the sets used across the exec tests.
func seedStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	err := s.Seed(context.Background(), map[string][]string{
		"foo": {"1", "2", "3", "4"},
		"bar": {"2", "3", "4", "5"},
		"baz": {"3", "9"},
	})
	if err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s
}
