package internal

import (
	"io"

	"github.com/doctavious/snippext/internal/extraction"
)

// Mode selects what Run does.
type Mode int

const (
	// ModeExtract extracts snippets into output files and targets.
	ModeExtract Mode = iota
	// ModeClear empties the snippet regions of the targets.
	ModeClear
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config        *Config
	root          string
	mode          Mode
	deleteMarkers bool
	watch         bool
	verbose       bool
	out           io.Writer
	logOut        io.Writer
	resolver      extraction.SourceResolver
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithRoot sets the project root. Defaults to the working directory.
func WithRoot(root string) Option {
	return func(a *application) {
		a.root = root
	}
}

// WithMode sets the run mode.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithDeleteMarkers removes marker lines as well when clearing.
func WithDeleteMarkers(del bool) Option {
	return func(a *application) {
		a.deleteMarkers = del
	}
}

// WithWatch keeps extracting whenever sources change.
func WithWatch(watch bool) Option {
	return func(a *application) {
		a.watch = watch
	}
}

// WithVerbose lists every path in run summaries.
func WithVerbose(verbose bool) Option {
	return func(a *application) {
		a.verbose = verbose
	}
}

// WithOutput sets where run summaries are printed.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithLogOutput sets where logs are written.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// WithResolver sets the resolver for git and url sources.
func WithResolver(r extraction.SourceResolver) Option {
	return func(a *application) {
		a.resolver = r
	}
}
