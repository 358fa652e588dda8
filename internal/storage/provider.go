// Package storage defines the project file-system abstraction.
package storage

// Provider is the interface for project file operations. Paths are
// relative to the project root unless stated otherwise.
type Provider interface {
	// Root returns the absolute project root.
	Root() string
	// Glob returns the files matching pattern, relative and slash-separated.
	Glob(pattern string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// WriteIfChanged writes content unless path already holds it and
	// reports whether a write happened.
	WriteIfChanged(path string, content []byte) (bool, error)
}
