// Package testutil provides shared test helpers for setting up projects.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/doctavious/snippext/internal/storage"
)

// TestProject creates a temporary project directory holding files
// (relative path to content) and a storage.Provider rooted at it.
func TestProject(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		WriteFile(t, dir, rel, content)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of dir/rel.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
