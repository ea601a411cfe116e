package repository

import (
	"context"

	"github.com/pluginpub/pluginpub/internal/domain"
)

// GitRepository defines the read-only Git queries the publisher needs.
// Mutations (fetch, commit, push) go through the git CLI, see service.GitService.
type GitRepository interface {
	CurrentBranch(ctx context.Context) (string, error)
	IsClean(ctx context.Context) (bool, error)
	// BehindCount returns the number of upstream commits missing from HEAD.
	BehindCount(ctx context.Context) (int, error)
	RemoteURL(ctx context.Context, remote string) (string, error)
	// CommitsBetween lists non-merge commits reachable from the tag to but not
	// from the tag from, newest first. A missing from tag lists all history of to.
	CommitsBetween(ctx context.Context, from, to string) ([]domain.Commit, error)
	TagExists(ctx context.Context, tag string) (bool, error)
	GitDir(ctx context.Context) (string, error)
}
