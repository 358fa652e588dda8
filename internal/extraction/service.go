// Package extraction runs snippet extraction over a project: it resolves
// sources, extracts snippets concurrently, writes standalone output files
// and splices snippets into target documents.
package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/extract"
	"github.com/doctavious/snippext/internal/lexicon"
	"github.com/doctavious/snippext/internal/models"
	"github.com/doctavious/snippext/internal/splice"
	"github.com/doctavious/snippext/internal/storage"
)

// Renderer renders snippets for output files and targets.
type Renderer interface {
	Render(s models.Snippet, src models.SnippetSource, overrides map[string]string) (string, error)
	RenderTemplate(id string, s models.Snippet, src models.SnippetSource, overrides map[string]string) (string, error)
}

// SourceResolver turns a git or url source into local files. Returned
// files are read from FullPath.
type SourceResolver interface {
	Resolve(ctx context.Context, src models.SnippetSource) ([]models.SourceFile, error)
}

// SourceResolverFunc adapts a function to SourceResolver.
type SourceResolverFunc func(ctx context.Context, src models.SnippetSource) ([]models.SourceFile, error)

// Resolve calls f.
func (f SourceResolverFunc) Resolve(ctx context.Context, src models.SnippetSource) ([]models.SourceFile, error) {
	return f(ctx, src)
}

// Result summarises one run.
type Result struct {
	Sources   int      `json:"sources"`
	Snippets  int      `json:"snippets"`
	Written   []string `json:"written"`
	Unchanged []string `json:"unchanged"`
	Targets   []string `json:"targets"` // targets whose content changed
}

// Option configures a Service.
type Option func(*Service)

// WithResolver sets the resolver for git and url sources.
func WithResolver(r SourceResolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// WithConcurrency bounds the number of files extracted at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// Service coordinates storage, extraction and rendering.
type Service struct {
	settings *models.Settings
	store    storage.Provider
	renderer Renderer
	log      *slog.Logger
	resolver SourceResolver
	limit    int
}

// NewService creates a new extraction service.
func NewService(settings *models.Settings, store storage.Provider, renderer Renderer, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		settings: settings,
		store:    store,
		renderer: renderer,
		log:      log,
		limit:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// extracted holds the snippets of one source file.
type extracted struct {
	file     models.SourceFile
	snippets []models.Snippet
}

// Extract runs a full extraction. The first fatal error aborts the run;
// files written before it are kept.
func (s *Service) Extract(ctx context.Context) (Result, error) {
	var res Result

	targets, err := s.resolveTargets()
	if err != nil {
		return res, err
	}
	files, err := s.resolveSources(ctx, targets)
	if err != nil {
		return res, err
	}
	res.Sources = len(files)

	results, err := s.extractAll(ctx, files)
	if err != nil {
		return res, err
	}
	for _, r := range results {
		res.Snippets += len(r.snippets)
	}

	if s.settings.OutputDir != "" {
		if err := s.writeOutputs(ctx, results, &res); err != nil {
			return res, err
		}
	}
	if len(targets) > 0 {
		if err := s.spliceTargets(ctx, targets, results, &res); err != nil {
			return res, err
		}
	}

	s.log.Info("extraction: complete",
		slog.Int("sources", res.Sources),
		slog.Int("snippets", res.Snippets),
		slog.Int("written", len(res.Written)),
		slog.Int("unchanged", len(res.Unchanged)),
		slog.Int("targets", len(res.Targets)),
	)
	return res, nil
}

// Clear empties every snippet region in the targets, removing the marker
// lines as well when del is set.
func (s *Service) Clear(ctx context.Context, del bool) (Result, error) {
	var res Result
	targets, err := s.resolveTargets()
	if err != nil {
		return res, err
	}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		data, err := target.store.Read(target.path)
		if err != nil {
			return res, err
		}
		cleared := splice.Clear(string(data), s.markers(target.path), del)
		wrote, err := target.store.WriteIfChanged(target.path, []byte(cleared))
		if err != nil {
			return res, err
		}
		if wrote {
			res.Targets = append(res.Targets, target.name)
			s.log.Debug("extraction: target cleared", slog.String("path", target.name))
		} else {
			res.Unchanged = append(res.Unchanged, target.name)
		}
	}
	s.log.Info("extraction: clear complete",
		slog.Int("targets", len(res.Targets)),
		slog.Bool("delete", del),
	)
	return res, nil
}

// extractAll extracts every file concurrently and returns the results in
// file order.
func (s *Service) extractAll(ctx context.Context, files []models.SourceFile) ([]extracted, error) {
	results := make([]extracted, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := s.readSource(file)
			if err != nil {
				return err
			}
			if isBinary(data) {
				s.log.Debug("extraction: skipping binary file", slog.String("path", file.RelativePath))
				results[i] = extracted{file: file}
				return nil
			}
			snippets, err := extract.Extract(file, data, extract.Options{
				Markers:      s.markers(file.RelativePath),
				RetainNested: s.settings.RetainNestedSnippetComments,
			})
			if err != nil {
				return err
			}
			results[i] = extracted{file: file, snippets: snippets}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeOutputs renders every snippet with every template into output_dir.
// Repeated identifiers in one file map to the same path; the last wins.
func (s *Service) writeOutputs(ctx context.Context, results []extracted, res *Result) error {
	outDir := s.outputDir()
	base := outDir
	if escapes(outDir) {
		base = ""
	}
	templates := s.settings.TemplateIDs()

	var order []location
	contents := make(map[string]string)
	for _, r := range results {
		for _, snip := range r.snippets {
			for _, tid := range templates {
				rendered, err := s.renderer.RenderTemplate(tid, snip, r.file.Source, nil)
				if err != nil {
					return fmt.Errorf("extraction: render %s:%d %q: %w", snip.Path, snip.StartLine, snip.Identifier, err)
				}
				name := OutputPath(outDir, r.file.RelativePath, snip.Identifier, tid, s.settings.OutputExtension)
				if _, seen := contents[name]; !seen {
					order = append(order, location{
						path: OutputPath(base, r.file.RelativePath, snip.Identifier, tid, s.settings.OutputExtension),
						name: name,
					})
				}
				contents[name] = rendered
			}
		}
	}
	if len(order) == 0 {
		return nil
	}

	store := s.store
	if escapes(outDir) {
		var err error
		if store, err = s.externalStore(outDir, true); err != nil {
			return err
		}
	}
	for _, loc := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		wrote, err := store.WriteIfChanged(loc.path, []byte(contents[loc.name]))
		if err != nil {
			return err
		}
		if wrote {
			res.Written = append(res.Written, loc.name)
			s.log.Debug("extraction: wrote snippet", slog.String("path", loc.name))
		} else {
			res.Unchanged = append(res.Unchanged, loc.name)
		}
	}
	return nil
}

// spliceTargets reads each target once, splices every snippet into it and
// writes it back once when the content changed.
func (s *Service) spliceTargets(ctx context.Context, targets []location, results []extracted, res *Result) error {
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := target.store.Read(target.path)
		if err != nil {
			return err
		}
		markers := s.markers(target.path)
		doc := string(data)
		for _, r := range results {
			for _, snip := range r.snippets {
				doc, _, err = splice.Splice(doc, snip, r.file.Source, markers, s.renderer)
				if err != nil {
					return fmt.Errorf("extraction: splice %q into %s: %w", snip.Identifier, target.name, err)
				}
			}
		}
		wrote, err := target.store.WriteIfChanged(target.path, []byte(doc))
		if err != nil {
			return err
		}
		if wrote {
			res.Targets = append(res.Targets, target.name)
			s.log.Debug("extraction: target updated", slog.String("path", target.name))
		} else {
			res.Unchanged = append(res.Unchanged, target.name)
		}
	}
	return nil
}

// resolveSources expands every configured source into files, in source
// order with duplicates removed. Targets and files under output_dir are
// never sources.
func (s *Service) resolveSources(ctx context.Context, targets []location) ([]models.SourceFile, error) {
	excluded := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.store == s.store {
			excluded[t.path] = true
		}
	}
	outDir := s.outputDir()

	var files []models.SourceFile
	seen := make(map[string]bool)
	for _, src := range s.settings.SnippetSources() {
		switch v := src.(type) {
		case models.LocalSource:
			for _, pattern := range v.Files {
				matches, err := s.store.Glob(pattern)
				if err != nil {
					return nil, err
				}
				for _, rel := range matches {
					if seen[rel] || excluded[rel] || isTempFile(rel) || within(rel, outDir) {
						continue
					}
					seen[rel] = true
					files = append(files, models.SourceFile{
						FullPath:     filepath.Join(s.store.Root(), filepath.FromSlash(rel)),
						RelativePath: rel,
						Source:       v,
					})
				}
			}
		case models.GitSource, models.URLSource:
			if s.resolver == nil {
				return nil, fmt.Errorf("extraction: %s: %w", describe(src), apperr.ErrRemoteSource)
			}
			resolved, err := s.resolver.Resolve(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("extraction: resolve %s: %w", describe(src), err)
			}
			files = append(files, resolved...)
		}
	}
	s.log.Debug("extraction: resolved sources", slog.Int("files", len(files)))
	return files, nil
}

// resolveTargets expands the target globs into existing files. Patterns
// whose literal base lies outside the project are globbed in a store
// rooted at that base.
func (s *Service) resolveTargets() ([]location, error) {
	var targets []location
	seen := make(map[string]bool)
	for _, pattern := range s.settings.Targets {
		matches, err := s.globTarget(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			s.log.Warn("extraction: target matched no files", slog.String("pattern", pattern))
		}
		for _, loc := range matches {
			if !seen[loc.name] {
				seen[loc.name] = true
				targets = append(targets, loc)
			}
		}
	}
	return targets, nil
}

func (s *Service) globTarget(pattern string) ([]location, error) {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	dir := s.relToRoot(base)
	if !escapes(dir) {
		matches, err := s.store.Glob(pattern)
		if err != nil {
			return nil, err
		}
		locs := make([]location, len(matches))
		for i, m := range matches {
			locs[i] = location{store: s.store, path: m, name: m}
		}
		return locs, nil
	}

	store, err := s.externalStore(dir, false)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	matches, err := store.Glob(rest)
	if err != nil {
		return nil, err
	}
	locs := make([]location, len(matches))
	for i, m := range matches {
		locs[i] = location{store: store, path: m, name: path.Join(dir, m)}
	}
	return locs, nil
}

// location is a file reached through a store. name is the path reported
// in results and logs, relative to the project root when possible.
type location struct {
	store storage.Provider
	path  string
	name  string
}

// externalStore opens a store rooted at dir, a directory outside the
// project given relative to the root or as an absolute path.
func (s *Service) externalStore(dir string, create bool) (storage.Provider, error) {
	abs := filepath.FromSlash(dir)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.store.Root(), abs)
	}
	if create {
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("extraction: create %s: %w", dir, err)
		}
	}
	return storage.NewFS(abs)
}

func (s *Service) readSource(file models.SourceFile) ([]byte, error) {
	if _, local := file.Source.(models.LocalSource); local {
		return s.store.Read(file.RelativePath)
	}
	data, err := os.ReadFile(file.FullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("extraction: read %s: %w", file.FullPath, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("extraction: read %s: %w", file.FullPath, err)
	}
	return data, nil
}

func (s *Service) markers(p string) []lexicon.Marker {
	return lexicon.Markers(p, s.settings.CommentPrefixes, s.settings.Start, s.settings.End)
}

// outputDir returns output_dir as a clean slash path relative to the root.
// A directory outside the root starts with "../", or stays absolute when
// no relative path exists.
func (s *Service) outputDir() string {
	if s.settings.OutputDir == "" {
		return ""
	}
	return s.relToRoot(s.settings.OutputDir)
}

func (s *Service) relToRoot(p string) string {
	if filepath.IsAbs(filepath.FromSlash(p)) {
		if rel, err := filepath.Rel(s.store.Root(), filepath.FromSlash(p)); err == nil {
			p = rel
		}
	}
	return path.Clean(filepath.ToSlash(p))
}

// escapes reports whether the slash path dir leaves the project root.
func escapes(dir string) bool {
	return dir == ".." || strings.HasPrefix(dir, "../") || path.IsAbs(dir) || filepath.IsAbs(filepath.FromSlash(dir))
}

func within(rel, dir string) bool {
	if dir == "" || dir == "." {
		return false
	}
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}

func isTempFile(rel string) bool {
	return strings.HasPrefix(path.Base(rel), ".snippext-tmp-")
}

// isBinary reports whether data looks binary: it has a NUL byte within
// the first 8000 bytes.
func isBinary(data []byte) bool {
	head := data
	if len(head) > 8000 {
		head = head[:8000]
	}
	return bytes.IndexByte(head, 0) >= 0
}

func describe(src models.SnippetSource) string {
	switch v := src.(type) {
	case models.GitSource:
		return "git source " + v.Repository
	case models.URLSource:
		return "url source " + v.URL
	default:
		return "local source"
	}
}
