package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"go.uber.org/zap"

	"github.com/pluginpub/pluginpub/internal/domain"
)

// gitRepository is the implementation of the GitRepository interface.
// The repository is reopened for every query: fetch and `npm version` change
// refs and packfiles behind go-git's back.
type gitRepository struct {
	path   string
	logger *zap.Logger
}

// NewGitRepository creates a new GitRepository rooted at path (or one of its parents).
func NewGitRepository(path string, logger *zap.Logger) (GitRepository, error) {
	r := &gitRepository{path: path, logger: logger}
	if _, err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *gitRepository) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(r.path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return repo, nil
}

// CurrentBranch returns the short name of the checked out branch.
func (r *gitRepository) CurrentBranch(_ context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		r.logger.Debug("HEAD is detached", zap.String("hash", head.Hash().String()))
		return "", nil
	}
	return head.Name().Short(), nil
}

// IsClean reports whether the worktree has no staged, unstaged or untracked
// changes, honouring the same ignore files as `git status`.
func (r *gitRepository) IsClean(_ context.Context) (bool, error) {
	repo, err := r.open()
	if err != nil {
		return false, err
	}
	w, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := applyExcludes(w); err != nil {
		return false, err
	}
	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	if !status.IsClean() {
		r.logger.Debug("worktree has changes", zap.Int("files", len(status)))
	}
	return status.IsClean(), nil
}

// BehindCount counts the commits of the upstream branch that HEAD does not contain.
func (r *gitRepository) BehindCount(_ context.Context) (int, error) {
	repo, err := r.open()
	if err != nil {
		return 0, err
	}
	head, err := repo.Head()
	if err != nil {
		return 0, fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return 0, fmt.Errorf("HEAD is detached, no upstream to compare with")
	}
	upstream, err := r.upstreamReference(repo, head.Name().Short())
	if err != nil {
		return 0, err
	}
	local, err := ancestors(repo, head.Hash())
	if err != nil {
		return 0, err
	}
	commits, err := repo.Log(&git.LogOptions{From: upstream.Hash()})
	if err != nil {
		return 0, fmt.Errorf("failed to get upstream commits: %w", err)
	}
	var count int
	err = commits.ForEach(func(c *object.Commit) error {
		if _, ok := local[c.Hash]; !ok {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to iterate upstream commits: %w", err)
	}
	r.logger.Debug("compared with upstream",
		zap.String("upstream", upstream.Name().String()), zap.Int("behind", count))
	return count, nil
}

// upstreamReference resolves the remote-tracking ref configured for branch.
func (r *gitRepository) upstreamReference(repo *git.Repository, branch string) (*plumbing.Reference, error) {
	cfg, err := repo.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	bcfg, ok := cfg.Branches[branch]
	if !ok || bcfg.Remote == "" || bcfg.Merge == "" {
		return nil, fmt.Errorf("branch %s has no upstream branch configured", branch)
	}
	name := plumbing.NewRemoteReferenceName(bcfg.Remote, bcfg.Merge.Short())
	if bcfg.Remote == "." {
		name = bcfg.Merge
	}
	ref, err := repo.Reference(name, true)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upstream %s: %w", name, err)
	}
	return ref, nil
}

// RemoteURL returns the first URL configured for remote.
func (r *gitRepository) RemoteURL(_ context.Context, remote string) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	rem, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", remote, err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no url", remote)
	}
	return urls[0], nil
}

// CommitsBetween lists the commits of to that are not reachable from from.
func (r *gitRepository) CommitsBetween(_ context.Context, from, to string) ([]domain.Commit, error) {
	repo, err := r.open()
	if err != nil {
		return nil, err
	}
	toHash, err := r.resolveTag(repo, to)
	if err != nil {
		return nil, err
	}
	exclude := map[plumbing.Hash]struct{}{}
	if from != "" {
		fromHash, err := r.resolveTag(repo, from)
		switch {
		case errors.Is(err, git.ErrTagNotFound):
			r.logger.Warn("previous tag not found, listing full history", zap.String("tag", from))
		case err != nil:
			return nil, err
		default:
			if exclude, err = ancestors(repo, fromHash); err != nil {
				return nil, err
			}
		}
	}
	iter, err := repo.Log(&git.LogOptions{From: toHash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to get commits: %w", err)
	}
	var picked []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if _, ok := exclude[c.Hash]; ok || c.NumParents() > 1 {
			return nil
		}
		picked = append(picked, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate commits: %w", err)
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Committer.When.After(picked[j].Committer.When)
	})
	commits := make([]domain.Commit, 0, len(picked))
	for _, c := range picked {
		commits = append(commits, domain.Commit{Hash: c.Hash.String(), Subject: domain.SubjectLine(c.Message)})
	}
	r.logger.Debug("collected commits", zap.String("from", from), zap.String("to", to), zap.Int("count", len(commits)))
	return commits, nil
}

// resolveTag resolves a lightweight or annotated tag to its commit hash.
func (r *gitRepository) resolveTag(repo *git.Repository, tag string) (plumbing.Hash, error) {
	ref, err := repo.Tag(tag)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get tag %s: %w", tag, err)
	}
	// Try as lightweight tag first
	if commit, err := repo.CommitObject(ref.Hash()); err == nil {
		return commit.Hash, nil
	}
	// Try as annotated tag
	if tagObj, err := repo.TagObject(ref.Hash()); err == nil {
		if commit, err := repo.CommitObject(tagObj.Target); err == nil {
			return commit.Hash, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("failed to resolve commit for tag %s", tag)
}

// TagExists checks if a tag exists.
func (r *gitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	repo, err := r.open()
	if err != nil {
		return false, err
	}
	_, err = repo.Tag(tag)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	return true, nil
}

// GitDir returns the repository's .git directory.
func (r *gitRepository) GitDir(_ context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", fmt.Errorf("repository is not backed by a filesystem")
	}
	return storage.Filesystem().Root(), nil
}

// ancestors returns every commit reachable from hash.
func ancestors(repo *git.Repository, hash plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := repo.Log(&git.LogOptions{From: hash})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history from %s: %w", hash, err)
	}
	seen := map[plumbing.Hash]struct{}{}
	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history from %s: %w", hash, err)
	}
	return seen, nil
}
