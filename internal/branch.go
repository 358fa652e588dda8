package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doctavious/snippext/internal/render"
)

// HeadBranch returns a branch resolver that reads the checked out branch
// from root/.git/HEAD. It only answers for a repository that is one of the
// project's own remotes; any other repository, or a detached HEAD, yields
// no branch and the renderer falls back to its default.
func HeadBranch(root string) render.BranchResolver {
	return func(repository string) (string, error) {
		remotes, err := remoteURLs(filepath.Join(root, ".git", "config"))
		if err != nil {
			return "", err
		}
		want := normalizeRemote(repository)
		found := false
		for _, r := range remotes {
			if normalizeRemote(r) == want {
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("%s is not a remote of %s", repository, root)
		}

		data, err := os.ReadFile(filepath.Join(root, ".git", "HEAD"))
		if err != nil {
			return "", err
		}
		ref, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "ref: refs/heads/")
		if !ok || ref == "" {
			return "", errors.New("detached HEAD")
		}
		return ref, nil
	}
}

// remoteURLs returns the url values of the [remote "..."] sections of a
// git config file.
func remoteURLs(configPath string) ([]string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var urls []string
	inRemote := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inRemote = strings.HasPrefix(line, "[remote ")
			continue
		}
		if !inRemote {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(key) == "url" {
			urls = append(urls, strings.TrimSpace(value))
		}
	}
	return urls, nil
}

// normalizeRemote reduces a remote URL to host/path so that https, ssh and
// scp-style forms of the same repository compare equal.
func normalizeRemote(u string) string {
	u = strings.TrimSpace(u)
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	} else if at := strings.Index(u, "@"); at >= 0 {
		u = strings.Replace(u[at+1:], ":", "/", 1)
	}
	if at := strings.Index(u, "@"); at >= 0 && at < strings.Index(u+"/", "/") {
		u = u[at+1:]
	}
	u = strings.TrimSuffix(strings.TrimSuffix(u, "/"), ".git")
	return strings.ToLower(u)
}
