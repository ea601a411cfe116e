package usecase

import (
	"context"
	"fmt"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/repository"
	"github.com/pluginpub/pluginpub/internal/service"
)

// PreconditionsUseCase holds the git checks that must pass before anything is changed.
type PreconditionsUseCase struct {
	GitRepo repository.GitRepository
	GitSvc  service.GitService
	Branch  string
}

// CheckBranch fails unless HEAD is on the release branch.
func (uc *PreconditionsUseCase) CheckBranch(ctx context.Context) error {
	branch, err := uc.GitRepo.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current branch: %w", err)
	}
	if branch != uc.Branch {
		return &domain.PreconditionError{
			Message: fmt.Sprintf("Not on `%s` branch. Use --any-branch to publish anyway.", uc.Branch),
			Err:     domain.ErrNotOnBranch,
		}
	}
	return nil
}

// CheckWorkingTree fails when there are uncommitted or untracked files.
func (uc *PreconditionsUseCase) CheckWorkingTree(ctx context.Context) error {
	clean, err := uc.GitRepo.IsClean(ctx)
	if err != nil {
		return fmt.Errorf("failed to read working tree status: %w", err)
	}
	if !clean {
		return &domain.PreconditionError{
			Message: "Unclean working tree. Commit or stash changes first.",
			Err:     domain.ErrDirtyWorkingTree,
		}
	}
	return nil
}

// FetchRemote updates remote-tracking refs.
func (uc *PreconditionsUseCase) FetchRemote(ctx context.Context, out service.LineHandler) error {
	return uc.GitSvc.Fetch(ctx, out)
}

// CheckTagAvailable fails when the tag for the new version already exists.
func (uc *PreconditionsUseCase) CheckTagAvailable(ctx context.Context, tag string) error {
	exists, err := uc.GitRepo.TagExists(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to look up tag %s: %w", tag, err)
	}
	if exists {
		return &domain.PreconditionError{
			Message: fmt.Sprintf("Git tag `%s` already exists.", tag),
			Err:     domain.ErrTagExists,
		}
	}
	return nil
}

// CheckRemoteHistory fails when the upstream has commits missing locally.
func (uc *PreconditionsUseCase) CheckRemoteHistory(ctx context.Context) error {
	behind, err := uc.GitRepo.BehindCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to compare with upstream: %w", err)
	}
	if behind != 0 {
		return &domain.PreconditionError{
			Message: "Remote history differ. Please pull changes.",
			Err:     domain.ErrRemoteDiverged,
		}
	}
	return nil
}
