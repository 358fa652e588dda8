package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SnippetSource is one of LocalSource, GitSource or URLSource.
type SnippetSource interface {
	sourceKind() string
}

// LocalSource reads files matching globs relative to the project root.
type LocalSource struct {
	Files []string
}

// GitSource reads files from a repository checkout.
type GitSource struct {
	Repository string
	Branch     string
	Cone       []string
	Files      []string
}

// URLSource reads a single remote file.
type URLSource struct {
	URL string
}

func (LocalSource) sourceKind() string { return "local" }
func (GitSource) sourceKind() string   { return "git" }
func (URLSource) sourceKind() string   { return "url" }

// SourceConfig is the configuration file form of a SnippetSource.
// Exactly one of Files (alone), Repository or URL selects the variant.
type SourceConfig struct {
	Files      []string `yaml:"files,omitempty" json:"files,omitempty" jsonschema:"description=File globs relative to the project root or repository"`
	Repository string   `yaml:"repository,omitempty" json:"repository,omitempty"`
	Branch     string   `yaml:"branch,omitempty" json:"branch,omitempty"`
	Cone       []string `yaml:"cone_patterns,omitempty" json:"cone_patterns,omitempty"`
	URL        string   `yaml:"url,omitempty" json:"url,omitempty"`
}

// Validate validates a single source entry.
func (c SourceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Files, validation.When(c.URL == "",
			validation.Required.Error("files are required for local and git sources"))),
		validation.Field(&c.URL, validation.When(c.Repository != "" || len(c.Files) > 0,
			validation.Empty.Error("url cannot be combined with repository or files"))),
		validation.Field(&c.Branch, validation.When(c.Repository == "",
			validation.Empty.Error("branch requires a repository"))),
	)
}

// Source converts the configuration entry into its SnippetSource variant.
func (c SourceConfig) Source() SnippetSource {
	switch {
	case c.URL != "":
		return URLSource{URL: c.URL}
	case c.Repository != "":
		return GitSource{
			Repository: c.Repository,
			Branch:     c.Branch,
			Cone:       c.Cone,
			Files:      c.Files,
		}
	default:
		return LocalSource{Files: c.Files}
	}
}
