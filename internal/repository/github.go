package repository

import "context"

// ReleaseRequest describes a GitHub release for an already pushed tag.
type ReleaseRequest struct {
	Tag        string
	Name       string
	Body       string
	Prerelease bool
}

// ReleaseRepository defines the GitHub API operations used after publishing.
type ReleaseRepository interface {
	CreateRelease(ctx context.Context, req ReleaseRequest) (string, error)
}
