package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/picatz/icall"
)

// resolveTarget returns the local directory to load packages from. GitHub
// URLs are cloned first; they may include a subdirectory, either directly
// or in the blob/<branch>/ form of the web UI.
func resolveTarget(ctx context.Context, target string) (string, error) {
	if !strings.HasPrefix(target, "https://github.com/") {
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid GitHub URL %q: %w", target, err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", fmt.Errorf("invalid GitHub URL: %s", target)
	}

	var subpath string
	if len(segments) > 2 {
		if (segments[2] == "blob" || segments[2] == "tree") && len(segments) >= 5 {
			subpath = filepath.Join(segments[4:]...)
		} else {
			subpath = filepath.Join(segments[2:]...)
		}
	}

	cloneURL := "https://github.com/" + segments[0] + "/" + segments[1]
	dir, head, err := cloneRepository(ctx, cloneURL)
	if err != nil {
		return "", err
	}
	icall.FromContext(ctx).Step("cloned "+cloneURL, dir, head)

	if subpath != "" {
		dir = filepath.Join(dir, subpath)
	}
	// A file path selects its package.
	if strings.HasSuffix(dir, ".go") {
		dir = filepath.Dir(dir)
	}
	return dir, nil
}

// cloneRepository clones a repository and returns the directory it was cloned
// to and its HEAD, using go-git under the hood, which is a pure Go
// implementation of Git. Existing clones are reused.
func cloneRepository(ctx context.Context, repoURL string) (string, string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("%w", err)
	}

	pathSegments := strings.Split(u.Path, "/")
	if len(pathSegments) < 3 {
		return "", "", fmt.Errorf("invalid GitHub URL: %s", repoURL)
	}

	ownerAndRepo := pathSegments[1] + "/" + pathSegments[2]
	dir := filepath.Join(os.TempDir(), "icall", "github", ownerAndRepo)

	var repo *git.Repository
	if _, err := os.Stat(dir); err == nil {
		repo, err = git.PlainOpen(dir)
		if err != nil {
			return dir, "", fmt.Errorf("failed to open cached clone: %w", err)
		}
	} else {
		repo, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:          repoURL,
			Depth:        1,
			Tags:         git.NoTags,
			SingleBranch: true,
		})
		if err != nil {
			return dir, "", fmt.Errorf("failed to clone %s: %w", repoURL, err)
		}
	}

	head, err := repo.Head()
	if err != nil {
		return dir, "", fmt.Errorf("%w", err)
	}

	return dir, head.Hash().String(), nil
}

// splitTarget separates the target directory from the package patterns.
func splitTarget(args []string) (string, []string) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	var patterns []string
	if len(args) > 1 {
		for _, arg := range args[1:] {
			for _, p := range strings.Split(arg, ",") {
				if p = strings.TrimSpace(p); p != "" {
					patterns = append(patterns, p)
				}
			}
		}
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	return target, patterns
}
