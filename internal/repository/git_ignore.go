package repository

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// userExcludes returns the system and global ignore patterns git applies on
// top of a repository's own .gitignore files. The global file is the one named
// by core.excludesfile, or $XDG_CONFIG_HOME/git/ignore when that is unset.
func userExcludes() ([]gitignore.Pattern, error) {
	fs := osfs.New("/")
	system, err := gitignore.LoadSystemPatterns(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to load system excludes: %w", err)
	}
	global, err := gitignore.LoadGlobalPatterns(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to load global excludes: %w", err)
	}
	if global == nil {
		if global, err = readExcludesFile(fs, xdgIgnorePath()); err != nil {
			return nil, fmt.Errorf("failed to load global excludes: %w", err)
		}
	}
	return append(system, global...), nil
}

func xdgIgnorePath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "git", "ignore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "git", "ignore")
}

func readExcludesFile(fs billy.Filesystem, path string) ([]gitignore.Pattern, error) {
	if path == "" {
		return nil, nil
	}
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ps []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	return ps, scanner.Err()
}

// applyExcludes makes w.Status() ignore what `git status` ignores. Status
// appends w.Excludes after the repository patterns, so those are repeated
// last to keep them above the user's excludes.
func applyExcludes(w *git.Worktree) error {
	user, err := userExcludes()
	if err != nil {
		return err
	}
	if len(user) == 0 {
		return nil
	}
	repo, err := gitignore.ReadPatterns(w.Filesystem, nil)
	if err != nil {
		return fmt.Errorf("failed to read ignore patterns: %w", err)
	}
	w.Excludes = append(user, repo...)
	return nil
}
