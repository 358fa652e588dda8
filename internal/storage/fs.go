package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/checksum"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the project directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute project root.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a path against the project root and rejects any result
// that escapes it (directory traversal). Absolute paths are accepted when
// they point inside the root.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	joined := cleaned
	if !filepath.IsAbs(cleaned) {
		joined = filepath.Join(f.root, cleaned)
	}
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes project root: %s", rel)
	}
	return abs, nil
}

// Rel converts a path inside the root into a slash-separated relative path.
func (f *FS) Rel(p string) (string, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", fmt.Errorf("storage: relative path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Glob returns the regular files matching pattern, which may use `**`.
// Paths with a hidden segment (".git", ".cache") are skipped unless the
// pattern itself names a hidden segment.
func (f *FS) Glob(pattern string) ([]string, error) {
	slashed := filepath.ToSlash(pattern)
	if filepath.IsAbs(pattern) {
		rel, err := f.Rel(pattern)
		if err != nil {
			return nil, err
		}
		slashed = rel
	}
	slashed = strings.TrimPrefix(path.Clean(slashed), "./")

	if !doublestar.ValidatePattern(slashed) {
		return nil, &apperr.GlobPatternError{Pattern: pattern, Err: doublestar.ErrBadPattern}
	}
	if strings.HasPrefix(slashed, "../") || slashed == ".." {
		return nil, fmt.Errorf("storage: pattern escapes project root: %s", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(f.root), slashed, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, doublestar.ErrBadPattern) {
			return nil, &apperr.GlobPatternError{Pattern: pattern, Err: err}
		}
		return nil, fmt.Errorf("storage: glob %s: %w", pattern, err)
	}

	allowHidden := hasHiddenSegment(slashed)
	out := matches[:0]
	for _, m := range matches {
		if !allowHidden && hasHiddenSegment(m) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Match reports whether the relative slash path name matches any pattern.
func Match(patterns []string, name string) bool {
	for _, p := range patterns {
		p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func hasHiddenSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if len(seg) > 1 && seg[0] == '.' && seg != ".." {
			return true
		}
	}
	return false
}

// Read returns the raw bytes of a project file.
func (f *FS) Read(p string) ([]byte, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", p, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return data, nil
}

// WriteIfChanged skips the write when the file already holds content.
func (f *FS) WriteIfChanged(p string, content []byte) (bool, error) {
	existing, err := f.Read(p)
	if err == nil && checksum.Sum(existing) == checksum.Sum(content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}
	if err := f.Write(p, content); err != nil {
		return false, err
	}
	return true, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(p string, content []byte) error {
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(abs); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".snippext-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
