// Package models defines the domain types for snippext.
package models

// Snippet is a region extracted from a source file.
type Snippet struct {
	Identifier string            `json:"identifier"`
	Path       string            `json:"path"` // relative to the source root
	FullPath   string            `json:"full_path"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	StartLine  int               `json:"start_line"`
	EndLine    int               `json:"end_line"`
}

// SourceFile is one resolved input file handed to the extractor.
type SourceFile struct {
	FullPath     string
	RelativePath string
	Source       SnippetSource
}

// Template renders a snippet into its final text.
type Template struct {
	Identifier string `yaml:"-" json:"-"`
	Content    string `yaml:"content" json:"content" jsonschema:"required"`
	IsDefault  bool   `yaml:"default,omitempty" json:"default,omitempty"`
}
