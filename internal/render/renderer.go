// Package render turns snippets into their final text through templates.
package render

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cbroglie/mustache"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/lexicon"
	"github.com/doctavious/snippext/internal/models"
)

// Template variables with special meaning.
const (
	VarSnippet            = "snippet"
	VarSourcePath         = "source_path"
	VarSourceLink         = "source_link"
	VarSourceLinksEnabled = "source_links_enabled"
	VarSourceLinkPrefix   = "source_link_prefix"
	VarOmitSourceLink     = "omit_source_link"
	VarLang               = "lang"
	VarTemplate           = "template"
	VarSelectedLines      = "selected_lines"
)

// ellipsisFallback is the comment token used when a language has none.
const ellipsisFallback = "//"

// Option configures a Renderer.
type Option func(*Renderer)

// WithBranchResolver sets the lookup used for git sources without a branch.
func WithBranchResolver(fn BranchResolver) Option {
	return func(r *Renderer) {
		r.branches = fn
	}
}

// Renderer renders snippets with the templates from a settings value.
type Renderer struct {
	settings  *models.Settings
	branches  BranchResolver
	templates map[string]*mustache.Template
}

// NewRenderer compiles every configured template.
func NewRenderer(settings *models.Settings, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		settings:  settings,
		templates: make(map[string]*mustache.Template, len(settings.Templates)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for id, t := range settings.Templates {
		tmpl, err := mustache.ParseStringRaw(t.Content, true)
		if err != nil {
			return nil, fmt.Errorf("render: parse template %q: %w", id, err)
		}
		r.templates[id] = tmpl
	}
	return r, nil
}

// Render renders s with the template named by the `template` variable, or
// the default template. overrides have the lowest precedence and usually
// come from the attributes of a target's start marker.
func (r *Renderer) Render(s models.Snippet, src models.SnippetSource, overrides map[string]string) (string, error) {
	vars, err := r.variables(s, src, overrides)
	if err != nil {
		return "", err
	}

	var id string
	if requested, ok := vars[VarTemplate].(string); ok && requested != "" {
		if _, found := r.settings.Template(requested); !found {
			return "", &apperr.TemplateNotFoundError{Identifier: requested}
		}
		id = requested
	} else {
		t, found := r.settings.DefaultTemplate()
		if !found {
			return "", &apperr.TemplateNotFoundError{}
		}
		id = t.Identifier
	}
	return r.execute(id, vars)
}

// RenderTemplate renders s with the named template regardless of any
// `template` attribute.
func (r *Renderer) RenderTemplate(id string, s models.Snippet, src models.SnippetSource, overrides map[string]string) (string, error) {
	if _, found := r.settings.Template(id); !found {
		return "", &apperr.TemplateNotFoundError{Identifier: id}
	}
	vars, err := r.variables(s, src, overrides)
	if err != nil {
		return "", err
	}
	return r.execute(id, vars)
}

func (r *Renderer) execute(id string, vars map[string]any) (string, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return "", &apperr.TemplateNotFoundError{Identifier: id}
	}
	out, err := tmpl.Render(vars)
	if err != nil {
		return "", fmt.Errorf("render: template %q: %w", id, err)
	}
	return out, nil
}

func (r *Renderer) variables(s models.Snippet, src models.SnippetSource, overrides map[string]string) (map[string]any, error) {
	vars := make(map[string]any, len(overrides)+len(s.Attributes)+8)
	for k, v := range overrides {
		vars[k] = v
	}

	lang := r.language(s, overrides)
	body, err := r.body(s, overrides, lang)
	if err != nil {
		return nil, fmt.Errorf("render: snippet %q in %s: %w", s.Identifier, s.Path, err)
	}
	vars[VarSnippet] = body
	vars[VarSourcePath] = s.Path
	if r.settings.OmitSourceLinks {
		vars[VarOmitSourceLink] = true
	}
	if r.settings.EnableAutodetectLanguage && lang != "" {
		vars[VarLang] = lang
	}
	link, ok := SourceLink(src, r.settings.LinkFormat, r.settings.SourceLinkPrefix, s.Path, s.StartLine, s.EndLine, r.branches)
	if ok {
		vars[VarSourceLink] = link
		vars[VarSourceLinksEnabled] = true
		vars[VarSourceLinkPrefix] = r.settings.SourceLinkPrefix
	}

	for k, v := range s.Attributes {
		vars[k] = v
	}

	for _, k := range []string{VarOmitSourceLink, VarSourceLinksEnabled} {
		if v, isString := vars[k].(string); isString {
			vars[k] = truthy(v)
		}
	}
	return vars, nil
}

// body applies line selection and unindenting to the snippet text.
func (r *Renderer) body(s models.Snippet, overrides map[string]string, lang string) (string, error) {
	text := s.Text
	selection := overrides[VarSelectedLines]
	if v, ok := s.Attributes[VarSelectedLines]; ok {
		selection = v
	}
	if selection != "" {
		var ellipsis string
		if r.settings.SelectedLinesIncludeEllipses {
			ellipsis = lineComment(s.Path, lang) + " ..."
		}
		selected, err := SelectLines(text, selection, ellipsis)
		if err != nil {
			return "", err
		}
		text = selected
	}
	return Unindent(text), nil
}

// language prefers a declared `lang` attribute over the file type.
func (r *Renderer) language(s models.Snippet, overrides map[string]string) string {
	if v := s.Attributes[VarLang]; v != "" {
		return v
	}
	if v := overrides[VarLang]; v != "" {
		return v
	}
	if l, ok := lexicon.Lookup(s.Path); ok {
		return l.Name
	}
	return strings.TrimPrefix(filepath.Ext(s.Path), ".")
}

func lineComment(path, lang string) string {
	if l, ok := lexicon.ByName(lang); ok && l.LineComment != "" {
		return l.LineComment
	}
	return lexicon.LineComment(path, ellipsisFallback)
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v != ""
	}
	return b
}
