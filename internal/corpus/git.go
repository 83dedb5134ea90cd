package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// syncGitRepo clones the repository into localPath on first sight and pulls
// afterwards. Already-up-to-date is not an error.
func syncGitRepo(repoURL, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning corpus repository", "url", repoURL, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return fmt.Errorf("failed to clone %s: %w", repoURL, err)
		}
	case err == nil:
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree at %s: %w", localPath, err)
		}
		if err := worktree.Pull(&git.PullOptions{RemoteName: "origin"}); err != nil &&
			!errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

// gitURLToLocalPath maps a repository URL to a checkout directory under
// baseDir, keyed by host and repo path. Handles https URLs and
// git@host:path.git SSH shorthand.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		repoPath := strings.TrimSuffix(parsed.Path, ".git")
		return filepath.Join(baseDir, parsed.Host, repoPath), nil
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		hostAndPath := repoURL[at+1:]
		host, repoPath, ok := strings.Cut(hostAndPath, ":")
		if ok {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// IsGitURL reports whether a source path looks like a git repository rather
// than a local directory.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}
