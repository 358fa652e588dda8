// Package apperr holds the error values shared across snippext packages.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrRemoteSource  = errors.New("remote sources require a source resolver")
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError lists every settings constraint that was violated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}

// UnclosedSnippetError reports a region that was opened but never closed.
type UnclosedSnippetError struct {
	Path       string
	Identifier string
	Line       int
}

func (e *UnclosedSnippetError) Error() string {
	return fmt.Sprintf("%s:%d: snippet %q is never closed", e.Path, e.Line, e.Identifier)
}

// TemplateNotFoundError is returned when a requested or default template is missing.
type TemplateNotFoundError struct {
	Identifier string
}

func (e *TemplateNotFoundError) Error() string {
	if e.Identifier == "" {
		return "template not found: no default template configured"
	}
	return fmt.Sprintf("template not found: %q", e.Identifier)
}

// GlobPatternError wraps a malformed file glob.
type GlobPatternError struct {
	Pattern string
	Err     error
}

func (e *GlobPatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q: %v", e.Pattern, e.Err)
}

func (e *GlobPatternError) Unwrap() error {
	return e.Err
}
