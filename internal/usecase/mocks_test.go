package usecase

import (
	"context"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/service"
	"github.com/stretchr/testify/mock"
)

type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) CurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) IsClean(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) BehindCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockGitRepository) RemoteURL(ctx context.Context, remote string) (string, error) {
	args := m.Called(ctx, remote)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) CommitsBetween(ctx context.Context, from, to string) ([]domain.Commit, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Commit), args.Error(1)
}

func (m *mockGitRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) GitDir(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockGitService struct {
	mock.Mock
}

func (m *mockGitService) Fetch(ctx context.Context, _ service.LineHandler) error {
	return m.Called(ctx).Error(0)
}

func (m *mockGitService) Add(ctx context.Context, paths []string, _ service.LineHandler) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *mockGitService) Commit(ctx context.Context, message string, _ service.LineHandler) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockGitService) Push(ctx context.Context, _ service.LineHandler) error {
	return m.Called(ctx).Error(0)
}

func (m *mockGitService) PushFollowTags(ctx context.Context, _ service.LineHandler) error {
	return m.Called(ctx).Error(0)
}
