package models

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/doctavious/snippext/internal/apperr"
)

//go:embed defaults.yaml
var defaultSettingsYAML []byte

// LinkFormat selects how source links are built for a hosting provider.
type LinkFormat string

// Supported link formats.
const (
	LinkFormatAzureRepos LinkFormat = "AzureRepos"
	LinkFormatBitBucket  LinkFormat = "BitBucket"
	LinkFormatGitea      LinkFormat = "Gitea"
	LinkFormatGitee      LinkFormat = "Gitee"
	LinkFormatGitHub     LinkFormat = "GitHub"
	LinkFormatGitLab     LinkFormat = "GitLab"
)

// LinkFormats lists every supported link format.
var LinkFormats = []LinkFormat{
	LinkFormatAzureRepos,
	LinkFormatBitBucket,
	LinkFormatGitea,
	LinkFormatGitee,
	LinkFormatGitHub,
	LinkFormatGitLab,
}

// ParseLinkFormat matches s case-insensitively against the known formats.
func ParseLinkFormat(s string) (LinkFormat, bool) {
	for _, f := range LinkFormats {
		if strings.EqualFold(string(f), s) {
			return f, true
		}
	}
	return "", false
}

// UnmarshalText normalises known formats and keeps unknown values so that
// validation can report them.
func (f *LinkFormat) UnmarshalText(text []byte) error {
	if lf, ok := ParseLinkFormat(string(text)); ok {
		*f = lf
		return nil
	}
	*f = LinkFormat(text)
	return nil
}

// Settings is the fully resolved configuration consumed by the core.
type Settings struct {
	Start                        string              `yaml:"start" json:"start" jsonschema:"required,description=Text following the comment prefix that opens a snippet"`
	End                          string              `yaml:"end" json:"end" jsonschema:"required,description=Text following the comment prefix that closes a snippet"`
	CommentPrefixes              []string            `yaml:"comment_prefixes" json:"comment_prefixes" jsonschema:"required"`
	Templates                    map[string]Template `yaml:"templates" json:"templates" jsonschema:"required"`
	Sources                      []SourceConfig      `yaml:"sources" json:"sources" jsonschema:"required"`
	OutputDir                    string              `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
	OutputExtension              string              `yaml:"output_extension" json:"output_extension"`
	Targets                      []string            `yaml:"targets,omitempty" json:"targets,omitempty"`
	LinkFormat                   LinkFormat          `yaml:"link_format,omitempty" json:"link_format,omitempty" jsonschema:"enum=AzureRepos,enum=BitBucket,enum=Gitea,enum=Gitee,enum=GitHub,enum=GitLab"`
	SourceLinkPrefix             string              `yaml:"source_link_prefix,omitempty" json:"source_link_prefix,omitempty"`
	OmitSourceLinks              bool                `yaml:"omit_source_links" json:"omit_source_links"`
	RetainNestedSnippetComments  bool                `yaml:"retain_nested_snippet_comments" json:"retain_nested_snippet_comments"`
	EnableAutodetectLanguage     bool                `yaml:"enable_autodetect_language" json:"enable_autodetect_language"`
	SelectedLinesIncludeEllipses bool                `yaml:"selected_lines_include_ellipses" json:"selected_lines_include_ellipses"`
}

// DefaultSettingsYAML returns the embedded default configuration file.
func DefaultSettingsYAML() []byte {
	out := make([]byte, len(defaultSettingsYAML))
	copy(out, defaultSettingsYAML)
	return out
}

// NewDefaultSettings returns the embedded default settings.
func NewDefaultSettings() *Settings {
	var s Settings
	if err := yaml.Unmarshal(defaultSettingsYAML, &s); err != nil {
		panic(fmt.Sprintf("models: embedded defaults: %v", err))
	}
	return &s
}

// Validate reports every violated constraint at once as an *apperr.ValidationError.
func (s *Settings) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Start, validation.Required),
		validation.Field(&s.End, validation.Required),
		validation.Field(&s.CommentPrefixes, validation.Required),
		validation.Field(&s.Templates, validation.Required, validation.By(exactlyOneDefault)),
		validation.Field(&s.Sources, validation.Required),
		validation.Field(&s.OutputExtension, validation.Required),
		validation.Field(&s.OutputDir, validation.When(len(s.Targets) == 0,
			validation.Required.Error("output_dir or targets must be provided"))),
		validation.Field(&s.LinkFormat, validation.In(linkFormatValues()...).Error("unknown link format")),
	)
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	return &apperr.ValidationError{Problems: flatten("", verrs)}
}

func linkFormatValues() []any {
	out := make([]any, len(LinkFormats))
	for i, f := range LinkFormats {
		out[i] = f
	}
	return out
}

func exactlyOneDefault(value any) error {
	templates, _ := value.(map[string]Template)
	if len(templates) <= 1 {
		return nil
	}
	defaults := 0
	for _, t := range templates {
		if t.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("exactly one template must be marked default when more than one is defined (found %d)", defaults)
	}
	return nil
}

// flatten turns nested validation errors into sorted "path: message" lines.
func flatten(prefix string, errs validation.Errors) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(errs[k], &nested) {
			out = append(out, flatten(name, nested)...)
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", name, errs[k].Error()))
	}
	return out
}

// Template returns the template with the given identifier.
func (s *Settings) Template(id string) (Template, bool) {
	t, ok := s.Templates[id]
	if !ok {
		return Template{}, false
	}
	t.Identifier = id
	return t, true
}

// DefaultTemplate returns the template marked default, or the only template.
func (s *Settings) DefaultTemplate() (Template, bool) {
	if len(s.Templates) == 1 {
		for id, t := range s.Templates {
			t.Identifier = id
			return t, true
		}
	}
	for id, t := range s.Templates {
		if t.IsDefault {
			t.Identifier = id
			return t, true
		}
	}
	return Template{}, false
}

// TemplateIDs returns the template identifiers in sorted order.
func (s *Settings) TemplateIDs() []string {
	ids := make([]string, 0, len(s.Templates))
	for id := range s.Templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SnippetSources converts the configured sources into their variants.
func (s *Settings) SnippetSources() []SnippetSource {
	out := make([]SnippetSource, 0, len(s.Sources))
	for _, c := range s.Sources {
		out = append(out, c.Source())
	}
	return out
}
