package extraction

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/models"
	"github.com/doctavious/snippext/internal/render"
	"github.com/doctavious/snippext/internal/storage"
	"github.com/doctavious/snippext/internal/testutil"
)

func testSettings() *models.Settings {
	return &models.Settings{
		Start:           "snippet::start",
		End:             "snippet::end",
		CommentPrefixes: []string{"// ", "# ", "<!-- "},
		Templates: map[string]models.Template{
			"raw": {Content: "{{snippet}}", IsDefault: true},
		},
		Sources:         []models.SourceConfig{{Files: []string{"**/*.rs"}}},
		OutputDir:       "snippets",
		OutputExtension: "md",
	}
}

func newService(t *testing.T, settings *models.Settings, store storage.Provider, opts ...Option) *Service {
	t.Helper()
	r, err := render.NewRenderer(settings)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewService(settings, store, r, testutil.Logger(), opts...)
}

const fooRS = "// snippet::start a\nx=1\n// snippet::end\n// snippet::start b\n    y=2\n// snippet::end\n"

func TestExtract_WritesOutputFiles(t *testing.T) {
	dir, store := testutil.TestProject(t, map[string]string{
		"src/foo.rs": fooRS,
		"README.md":  "# readme\n",
	})
	svc := newService(t, testSettings(), store)

	res, err := svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Sources != 1 || res.Snippets != 2 {
		t.Errorf("sources = %d, snippets = %d", res.Sources, res.Snippets)
	}
	want := []string{"snippets/src/foo.rs/a_raw.md", "snippets/src/foo.rs/b_raw.md"}
	if !reflect.DeepEqual(res.Written, want) {
		t.Errorf("Written = %v, want %v", res.Written, want)
	}
	if got := testutil.ReadFile(t, dir, "snippets/src/foo.rs/a_raw.md"); got != "x=1\n" {
		t.Errorf("a = %q", got)
	}
	if got := testutil.ReadFile(t, dir, "snippets/src/foo.rs/b_raw.md"); got != "y=2\n" {
		t.Errorf("b = %q", got)
	}
}

func TestExtract_SecondRunIsUnchanged(t *testing.T) {
	_, store := testutil.TestProject(t, map[string]string{"foo.rs": fooRS})
	svc := newService(t, testSettings(), store)

	if _, err := svc.Extract(context.Background()); err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	res, err := svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if len(res.Written) != 0 || len(res.Unchanged) != 2 {
		t.Errorf("written = %v, unchanged = %v", res.Written, res.Unchanged)
	}
}

func TestExtract_OutputPerTemplate(t *testing.T) {
	settings := testSettings()
	settings.Templates = map[string]models.Template{
		"raw":    {Content: "{{snippet}}", IsDefault: true},
		"quoted": {Content: "> {{snippet}}"},
	}
	dir, store := testutil.TestProject(t, map[string]string{"foo.rs": "// snippet::start hello world\nhi\n// snippet::end\n"})
	svc := newService(t, settings, store)

	res, err := svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"snippets/foo.rs/hello_world_quoted.md", "snippets/foo.rs/hello_world_raw.md"}
	if !reflect.DeepEqual(res.Written, want) {
		t.Errorf("Written = %v, want %v", res.Written, want)
	}
	if got := testutil.ReadFile(t, dir, want[0]); got != "> hi\n" {
		t.Errorf("quoted = %q", got)
	}
}

func TestExtract_RepeatedIdentifierLastWins(t *testing.T) {
	dir, store := testutil.TestProject(t, map[string]string{
		"foo.rs": "// snippet::start a\nx=1\n// snippet::end\n// snippet::start a\nx=2\n// snippet::end\n",
	})
	svc := newService(t, testSettings(), store)

	res, err := svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Written) != 1 {
		t.Errorf("Written = %v", res.Written)
	}
	if got := testutil.ReadFile(t, dir, "snippets/foo.rs/a_raw.md"); got != "x=2\n" {
		t.Errorf("a = %q", got)
	}
}

func TestExtract_SplicesTargets(t *testing.T) {
	settings := testSettings()
	settings.OutputDir = ""
	settings.Targets = []string{"docs/*.md"}
	dir, store := testutil.TestProject(t, map[string]string{
		"foo.rs":       fooRS,
		"docs/one.md":  "# One\n<!-- snippet::start a -->\nold\n<!-- snippet::end -->\n<!-- snippet::start b -->\n<!-- snippet::end -->\n",
		"docs/none.md": "# Nothing here\n",
	})
	svc := newService(t, settings, store)

	res, err := svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !reflect.DeepEqual(res.Targets, []string{"docs/one.md"}) {
		t.Errorf("Targets = %v", res.Targets)
	}
	if !reflect.DeepEqual(res.Unchanged, []string{"docs/none.md"}) {
		t.Errorf("Unchanged = %v", res.Unchanged)
	}
	want := "# One\n<!-- snippet::start a -->\nx=1\n<!-- snippet::end -->\n<!-- snippet::start b -->\ny=2\n<!-- snippet::end -->\n"
	if got := testutil.ReadFile(t, dir, "docs/one.md"); got != want {
		t.Errorf("one.md = %q, want %q", got, want)
	}

	res, err = svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if len(res.Targets) != 0 {
		t.Errorf("second run changed targets: %v", res.Targets)
	}
}

func TestExtract_TemplateWithoutTrailingNewlineKeepsDocument(t *testing.T) {
	settings := testSettings()
	settings.OutputDir = ""
	settings.Targets = []string{"README.md"}
	settings.Templates = map[string]models.Template{
		"fenced": {Content: "```\n{{snippet}}```", IsDefault: true},
	}
	dir, store := testutil.TestProject(t, map[string]string{
		"foo.rs":    "// snippet::start a\nx=1\n// snippet::end\n",
		"README.md": "<!-- snippet::start a -->\nold\n<!-- snippet::end -->\n\n## Keep me\ntext\n",
	})
	svc := newService(t, settings, store)

	want := "<!-- snippet::start a -->\n```\nx=1\n```\n<!-- snippet::end -->\n\n## Keep me\ntext\n"
	for run := 1; run <= 2; run++ {
		if _, err := svc.Extract(context.Background()); err != nil {
			t.Fatalf("Extract #%d: %v", run, err)
		}
		if got := testutil.ReadFile(t, dir, "README.md"); got != want {
			t.Fatalf("README after run %d = %q, want %q", run, got, want)
		}
	}
}

// nestedProject creates a project one level below a scratch directory so
// that paths starting with "../" stay inside the test's temp space.
func nestedProject(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	parent := t.TempDir()
	dir := filepath.Join(parent, "project")
	testutil.WriteFile(t, dir, "foo.rs", fooRS)
	for rel, content := range files {
		testutil.WriteFile(t, parent, rel, content)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return parent, store
}

func TestExtract_OutputDirOutsideProject(t *testing.T) {
	t.Run("relative", func(t *testing.T) {
		parent, store := nestedProject(t, nil)
		settings := testSettings()
		settings.OutputDir = "../docs-out"

		res, err := newService(t, settings, store).Extract(context.Background())
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		want := []string{"../docs-out/foo.rs/a_raw.md", "../docs-out/foo.rs/b_raw.md"}
		if !reflect.DeepEqual(res.Written, want) {
			t.Errorf("Written = %v, want %v", res.Written, want)
		}
		if got := testutil.ReadFile(t, parent, "docs-out/foo.rs/a_raw.md"); got != "x=1\n" {
			t.Errorf("a = %q", got)
		}
	})

	t.Run("absolute", func(t *testing.T) {
		parent, store := nestedProject(t, nil)
		settings := testSettings()
		settings.OutputDir = filepath.Join(parent, "abs-out")

		if _, err := newService(t, settings, store).Extract(context.Background()); err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got := testutil.ReadFile(t, parent, "abs-out/foo.rs/b_raw.md"); got != "y=2\n" {
			t.Errorf("b = %q", got)
		}
	})
}

func TestExtract_TargetOutsideProject(t *testing.T) {
	parent, store := nestedProject(t, map[string]string{
		"README.md":     "<!-- snippet::start a -->\n<!-- snippet::end -->\n",
		"docs/guide.md": "<!-- snippet::start b -->\n<!-- snippet::end -->\n",
	})
	settings := testSettings()
	settings.OutputDir = ""
	settings.Targets = []string{"../README.md", "../docs/*.md"}
	svc := newService(t, settings, store)

	res, err := svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !reflect.DeepEqual(res.Targets, []string{"../README.md", "../docs/guide.md"}) {
		t.Errorf("Targets = %v", res.Targets)
	}
	if got := testutil.ReadFile(t, parent, "README.md"); got != "<!-- snippet::start a -->\nx=1\n<!-- snippet::end -->\n" {
		t.Errorf("README = %q", got)
	}
	if got := testutil.ReadFile(t, parent, "docs/guide.md"); got != "<!-- snippet::start b -->\ny=2\n<!-- snippet::end -->\n" {
		t.Errorf("guide = %q", got)
	}

	cleared, err := svc.Clear(context.Background(), true)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(cleared.Targets) != 2 {
		t.Errorf("cleared = %v", cleared.Targets)
	}
	if got := testutil.ReadFile(t, parent, "README.md"); got != "" {
		t.Errorf("README after clear = %q", got)
	}
}

func TestExtract_TargetsAndOutputDirAreNotSources(t *testing.T) {
	settings := testSettings()
	settings.Sources = []models.SourceConfig{{Files: []string{"**/*"}}}
	settings.Targets = []string{"README.md"}
	_, store := testutil.TestProject(t, map[string]string{
		"foo.rs":                   fooRS,
		"README.md":                "<!-- snippet::start a -->\n<!-- snippet::end -->\n",
		"snippets/old/stale.md":    "<!-- snippet::start stale -->\nnope\n<!-- snippet::end -->\n",
		".git/hooks/pre-commit.rs": "// snippet::start hidden\n// snippet::end\n",
	})
	svc := newService(t, settings, store)

	res, err := svc.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Sources != 1 || res.Snippets != 2 {
		t.Errorf("sources = %d, snippets = %d", res.Sources, res.Snippets)
	}
}

func TestExtract_UnclosedAbortsRun(t *testing.T) {
	_, store := testutil.TestProject(t, map[string]string{
		"bad.rs": "// snippet::start open\nbody\n",
	})
	svc := newService(t, testSettings(), store)

	_, err := svc.Extract(context.Background())
	var unclosed *apperr.UnclosedSnippetError
	if !errors.As(err, &unclosed) {
		t.Fatalf("err = %v, want UnclosedSnippetError", err)
	}
	if unclosed.Path != "bad.rs" || unclosed.Identifier != "open" || unclosed.Line != 1 {
		t.Errorf("unclosed = %+v", unclosed)
	}
}

func TestExtract_BadGlob(t *testing.T) {
	settings := testSettings()
	settings.Sources = []models.SourceConfig{{Files: []string{"src/[a-"}}}
	_, store := testutil.TestProject(t, nil)
	svc := newService(t, settings, store)

	_, err := svc.Extract(context.Background())
	var pe *apperr.GlobPatternError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want GlobPatternError", err)
	}
}

func TestExtract_RemoteSourceNeedsResolver(t *testing.T) {
	settings := testSettings()
	settings.Sources = []models.SourceConfig{{URL: "https://example.com/main.rs"}}
	_, store := testutil.TestProject(t, nil)

	svc := newService(t, settings, store)
	if _, err := svc.Extract(context.Background()); !errors.Is(err, apperr.ErrRemoteSource) {
		t.Fatalf("err = %v, want ErrRemoteSource", err)
	}
}

func TestExtract_RemoteSourceWithResolver(t *testing.T) {
	settings := testSettings()
	settings.Sources = []models.SourceConfig{{Repository: "https://github.com/doctavious/snippext.git", Files: []string{"**/*.rs"}}}
	settings.Templates = map[string]models.Template{
		"raw": {Content: "{{snippet}}{{source_link}}", IsDefault: true},
	}
	dir, store := testutil.TestProject(t, nil)

	checkout := t.TempDir()
	testutil.WriteFile(t, checkout, "lib.rs", fooRS)
	resolver := SourceResolverFunc(func(_ context.Context, src models.SnippetSource) ([]models.SourceFile, error) {
		return []models.SourceFile{{
			FullPath:     filepath.Join(checkout, "lib.rs"),
			RelativePath: "lib.rs",
			Source:       src,
		}}, nil
	})
	svc := newService(t, settings, store, WithResolver(resolver))

	if _, err := svc.Extract(context.Background()); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "x=1\nhttps://github.com/doctavious/snippext/blob/main/lib.rs#L1-L3"
	if got := testutil.ReadFile(t, dir, "snippets/lib.rs/a_raw.md"); got != want {
		t.Errorf("a = %q, want %q", got, want)
	}
}

func TestExtract_CanceledContext(t *testing.T) {
	_, store := testutil.TestProject(t, map[string]string{"foo.rs": fooRS})
	svc := newService(t, testSettings(), store, WithConcurrency(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Extract(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClear(t *testing.T) {
	settings := testSettings()
	settings.Targets = []string{"README.md"}
	doc := "top\n<!-- snippet::start a -->\nbody\n<!-- snippet::end -->\nbottom\n"

	t.Run("keep markers", func(t *testing.T) {
		dir, store := testutil.TestProject(t, map[string]string{"README.md": doc})
		res, err := newService(t, settings, store).Clear(context.Background(), false)
		if err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if !reflect.DeepEqual(res.Targets, []string{"README.md"}) {
			t.Errorf("Targets = %v", res.Targets)
		}
		want := "top\n<!-- snippet::start a -->\n<!-- snippet::end -->\nbottom\n"
		if got := testutil.ReadFile(t, dir, "README.md"); got != want {
			t.Errorf("README = %q, want %q", got, want)
		}
	})

	t.Run("delete", func(t *testing.T) {
		dir, store := testutil.TestProject(t, map[string]string{"README.md": doc})
		if _, err := newService(t, settings, store).Clear(context.Background(), true); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if got := testutil.ReadFile(t, dir, "README.md"); got != "top\nbottom\n" {
			t.Errorf("README = %q", got)
		}
	})
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		out, src, id, tmpl, ext, want string
	}{
		{"snippets", "src/main.rs", "a", "default", "md", "snippets/src/main.rs/a_default.md"},
		{"./out/", "main.go", "hello/world", "raw", ".txt", "out/main.go/hello_world_raw.txt"},
		{"out", "main.go", "x", "raw", "", "out/main.go/x_raw"},
	}
	for _, c := range cases {
		if got := OutputPath(c.out, c.src, c.id, c.tmpl, c.ext); got != c.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", c.out, c.src, c.id, got, c.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"simple":      "simple",
		"with space":  "with_space",
		"a/b\\c":      "a_b_c",
		"v1.2-beta_3": "v1.2-beta_3",
		"..":          "__",
		"ünï":         "_n_",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
