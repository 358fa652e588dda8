package render

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/doctavious/snippext/internal/models"
)

// fallbackBranch is used for git sources when no branch is configured or resolvable.
const fallbackBranch = "main"

// BranchResolver looks up the current branch of a repository.
type BranchResolver func(repository string) (string, error)

// SourceLink builds the link to the lines a snippet came from. The second
// return value is false when no link applies.
func SourceLink(src models.SnippetSource, format models.LinkFormat, prefix, path string, start, end int, branches BranchResolver) (string, bool) {
	path = filepath.ToSlash(path)

	switch v := src.(type) {
	case models.URLSource:
		return v.URL, v.URL != ""

	case models.GitSource:
		repo := normalizeRepository(v.Repository)
		if format == "" {
			inferred, ok := inferLinkFormat(repo)
			if !ok {
				return "", false
			}
			format = inferred
		}
		branch := v.Branch
		if branch == "" && branches != nil {
			if b, err := branches(v.Repository); err == nil {
				branch = b
			}
		}
		if branch == "" {
			branch = fallbackBranch
		}
		return gitBase(format, repo, branch, path) + lineSuffix(format, start, end), true

	default:
		// Local sources only link when a format is configured explicitly.
		if format == "" {
			return "", false
		}
		return prefix + path + lineSuffix(format, start, end), true
	}
}

func lineSuffix(format models.LinkFormat, start, end int) string {
	switch format {
	case models.LinkFormatAzureRepos:
		return fmt.Sprintf("&line=%d&lineEnd=%d", start, end)
	case models.LinkFormatBitBucket:
		return fmt.Sprintf("#lines=%d:%d", start, end)
	case models.LinkFormatGitHub, models.LinkFormatGitea:
		return fmt.Sprintf("#L%d-L%d", start, end)
	case models.LinkFormatGitLab, models.LinkFormatGitee:
		return fmt.Sprintf("#L%d-%d", start, end)
	}
	return ""
}

func gitBase(format models.LinkFormat, repo, branch, path string) string {
	switch format {
	case models.LinkFormatAzureRepos:
		return repo + "?path=/" + path + "&version=GB" + branch
	case models.LinkFormatBitBucket:
		return repo + "/src/" + branch + "/" + path
	case models.LinkFormatGitea:
		return repo + "/src/branch/" + branch + "/" + path
	case models.LinkFormatGitLab:
		return repo + "/-/blob/" + branch + "/" + path
	default:
		return repo + "/blob/" + branch + "/" + path
	}
}

// normalizeRepository turns clone URLs into browsable base URLs.
func normalizeRepository(repo string) string {
	repo = strings.TrimSuffix(strings.TrimSpace(repo), "/")
	repo = strings.TrimSuffix(repo, ".git")
	// scp-like syntax: git@host:org/repo
	if !strings.Contains(repo, "://") {
		if at := strings.Index(repo, "@"); at >= 0 {
			if colon := strings.Index(repo[at:], ":"); colon > 0 {
				host := repo[at+1 : at+colon]
				return "https://" + host + "/" + repo[at+colon+1:]
			}
		}
	}
	return repo
}

// inferLinkFormat picks a format from the first recognised host label.
func inferLinkFormat(repo string) (models.LinkFormat, bool) {
	u, err := url.Parse(repo)
	if err != nil {
		return "", false
	}
	for _, label := range strings.Split(strings.ToLower(u.Hostname()), ".") {
		switch label {
		case "github":
			return models.LinkFormatGitHub, true
		case "gitlab":
			return models.LinkFormatGitLab, true
		case "bitbucket":
			return models.LinkFormatBitBucket, true
		case "gitea":
			return models.LinkFormatGitea, true
		case "gitee":
			return models.LinkFormatGitee, true
		case "azure":
			return models.LinkFormatAzureRepos, true
		}
	}
	return "", false
}
