package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v74/github"
	"github.com/pluginpub/pluginpub/internal/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// githubRepository is the implementation of the ReleaseRepository interface.
type githubRepository struct {
	client *github.Client
	owner  string
	repo   string
	logger *zap.Logger
}

// NewGithubRepository creates a new ReleaseRepository with validation.
func NewGithubRepository(token, owner, repo string, logger *zap.Logger) (ReleaseRepository, error) {
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	return newGithubRepository(github.NewClient(tc), owner, repo, logger), nil
}

func newGithubRepository(client *github.Client, owner, repo string, logger *zap.Logger) *githubRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &githubRepository{client: client, owner: owner, repo: repo, logger: logger}
}

// CreateRelease publishes a release for req.Tag and returns its html url.
func (r *githubRepository) CreateRelease(ctx context.Context, req ReleaseRequest) (string, error) {
	if req.Tag == "" {
		return "", fmt.Errorf("release tag cannot be empty")
	}
	name := req.Name
	if name == "" {
		name = req.Tag
	}
	r.logger.Debug("creating github release",
		zap.String("owner", r.owner),
		zap.String("repo", r.repo),
		zap.String("tag", req.Tag))
	release, _, err := r.client.Repositories.CreateRelease(ctx, r.owner, r.repo, &github.RepositoryRelease{
		TagName:    github.Ptr(req.Tag),
		Name:       github.Ptr(name),
		Body:       github.Ptr(req.Body),
		Prerelease: github.Ptr(req.Prerelease),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create release %s for %s/%s: %w", req.Tag, r.owner, r.repo, err)
	}
	return release.GetHTMLURL(), nil
}
