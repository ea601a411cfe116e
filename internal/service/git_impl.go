package service

import (
	"context"
	"fmt"
)

type gitService struct {
	runner CommandRunner
	dir    string
}

// NewGitService creates a GitService running git in dir.
func NewGitService(runner CommandRunner, dir string) GitService {
	return &gitService{runner: runner, dir: dir}
}

func (s *gitService) run(ctx context.Context, out LineHandler, args ...string) error {
	return s.runner.Run(ctx, Command{Dir: s.dir, Name: GitBinary, Args: args}, out)
}

func (s *gitService) Fetch(ctx context.Context, out LineHandler) error {
	return s.run(ctx, out, "fetch")
}

func (s *gitService) Add(ctx context.Context, paths []string, out LineHandler) error {
	if len(paths) == 0 {
		return fmt.Errorf("no paths to stage")
	}
	return s.run(ctx, out, append([]string{"add", "--"}, paths...)...)
}

func (s *gitService) Commit(ctx context.Context, message string, out LineHandler) error {
	if message == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	return s.run(ctx, out, "commit", "-m", message)
}

func (s *gitService) Push(ctx context.Context, out LineHandler) error {
	return s.run(ctx, out, "push")
}

func (s *gitService) PushFollowTags(ctx context.Context, out LineHandler) error {
	return s.run(ctx, out, "push", "--follow-tags")
}
