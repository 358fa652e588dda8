package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/models"
	"github.com/doctavious/snippext/internal/testutil"
)

func testConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Templates = map[string]models.Template{
		"plain": {Content: "{{snippet}}", IsDefault: true},
	}
	cfg.Sources = []models.SourceConfig{{Files: []string{"**/*.go"}}}
	cfg.OutputDir = "snippets"
	cfg.Targets = []string{"README.md"}
	return cfg
}

const mainGo = "package main\n\n// snippet::start usage\nfunc main() {}\n// snippet::end\n"

func TestRun_Extract(t *testing.T) {
	dir, _ := testutil.TestProject(t, map[string]string{
		"main.go":   mainGo,
		"README.md": "# Usage\n<!-- snippet::start usage -->\n<!-- snippet::end -->\n",
	})
	var out bytes.Buffer

	err := Run(context.Background(),
		WithConfig(testConfig()),
		WithRoot(dir),
		WithOutput(&out),
		WithLogOutput(io.Discard),
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testutil.ReadFile(t, dir, "snippets/main.go/usage_plain.md"); got != "func main() {}\n" {
		t.Errorf("output = %q", got)
	}
	want := "# Usage\n<!-- snippet::start usage -->\nfunc main() {}\n<!-- snippet::end -->\n"
	if got := testutil.ReadFile(t, dir, "README.md"); got != want {
		t.Errorf("README = %q, want %q", got, want)
	}
	if !strings.HasPrefix(out.String(), "snippext: 1 source, 1 snippet\n") {
		t.Errorf("summary = %q", out.String())
	}
}

func TestRun_Clear(t *testing.T) {
	dir, _ := testutil.TestProject(t, map[string]string{
		"README.md": "# Usage\n<!-- snippet::start usage -->\nstale\n<!-- snippet::end -->\n",
	})

	err := Run(context.Background(),
		WithConfig(testConfig()),
		WithRoot(dir),
		WithMode(ModeClear),
		WithDeleteMarkers(true),
		WithOutput(io.Discard),
		WithLogOutput(io.Discard),
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := testutil.ReadFile(t, dir, "README.md"); got != "# Usage\n" {
		t.Errorf("README = %q", got)
	}
}

func TestRun_ReportsErrors(t *testing.T) {
	dir, _ := testutil.TestProject(t, map[string]string{
		"main.go": "// snippet::start open\n",
	})
	var out bytes.Buffer

	err := Run(context.Background(),
		WithConfig(testConfig()),
		WithRoot(dir),
		WithOutput(&out),
		WithLogOutput(io.Discard),
	)
	var unclosed *apperr.UnclosedSnippetError
	if !errors.As(err, &unclosed) {
		t.Fatalf("err = %v, want UnclosedSnippetError", err)
	}
	if !strings.Contains(out.String(), "error: main.go:1: snippet \"open\" is never closed") {
		t.Errorf("summary = %q", out.String())
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestHeadBranch(t *testing.T) {
	gitConfig := "[core]\n\tbare = false\n[remote \"origin\"]\n\turl = git@github.com:doctavious/snippext.git\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n"
	dir, _ := testutil.TestProject(t, map[string]string{
		".git/HEAD":   "ref: refs/heads/feature/x\n",
		".git/config": gitConfig,
	})

	for _, repo := range []string{
		"https://github.com/doctavious/snippext.git",
		"https://github.com/Doctavious/snippext",
		"ssh://git@github.com/doctavious/snippext.git",
	} {
		branch, err := HeadBranch(dir)(repo)
		if err != nil || branch != "feature/x" {
			t.Errorf("HeadBranch(%q) = %q, %v", repo, branch, err)
		}
	}

	if _, err := HeadBranch(dir)("https://github.com/other/repo.git"); err == nil {
		t.Error("expected error for a repository that is not a remote")
	}

	detached, _ := testutil.TestProject(t, map[string]string{
		".git/HEAD":   "0123456789abcdef\n",
		".git/config": gitConfig,
	})
	if _, err := HeadBranch(detached)("https://github.com/doctavious/snippext"); err == nil {
		t.Error("expected error for detached HEAD")
	}

	noGit, _ := testutil.TestProject(t, nil)
	if _, err := HeadBranch(noGit)("https://github.com/doctavious/snippext"); err == nil {
		t.Error("expected error without a git checkout")
	}
}
