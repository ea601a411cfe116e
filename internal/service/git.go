package service

import "context"

// GitService runs the git commands that change the repository or talk to the remote.
type GitService interface {
	Fetch(ctx context.Context, out LineHandler) error
	Add(ctx context.Context, paths []string, out LineHandler) error
	Commit(ctx context.Context, message string, out LineHandler) error
	Push(ctx context.Context, out LineHandler) error
	PushFollowTags(ctx context.Context, out LineHandler) error
}
