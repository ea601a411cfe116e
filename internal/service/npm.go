package service

import "context"

// PackageManager defines the package manager commands of a publish run.
type PackageManager interface {
	Install(ctx context.Context, out LineHandler) error
	Test(ctx context.Context, out LineHandler) error
	// Version sets the manifest version, commits and tags it.
	Version(ctx context.Context, version string, out LineHandler) error
	Publish(ctx context.Context, out LineHandler) error
}
