package service

import (
	"context"
	"fmt"
	"os"
)

// npmService is the implementation of the PackageManager interface.
type npmService struct {
	runner CommandRunner
	dir    string
	binary string
}

// NewNpmService creates a PackageManager running binary (npm by default) in dir.
func NewNpmService(runner CommandRunner, dir, binary string) PackageManager {
	if binary == "" {
		binary = DefaultPackageManager
	}
	return &npmService{runner: runner, dir: dir, binary: binary}
}

func (s *npmService) command(args ...string) Command {
	cmd := Command{Dir: s.dir, Name: s.binary, Args: args}
	// setup-node in GitHub Actions reads NODE_AUTH_TOKEN while the npm CLI docs use NPM_TOKEN
	if npmToken := os.Getenv("NPM_TOKEN"); npmToken != "" && os.Getenv("NODE_AUTH_TOKEN") == "" {
		cmd.Env = append(cmd.Env, "NODE_AUTH_TOKEN="+npmToken)
	}
	return cmd
}

func (s *npmService) Install(ctx context.Context, out LineHandler) error {
	return s.runner.Run(ctx, s.command("install"), out)
}

func (s *npmService) Test(ctx context.Context, out LineHandler) error {
	return s.runner.Run(ctx, s.command("test"), out)
}

func (s *npmService) Version(ctx context.Context, version string, out LineHandler) error {
	if version == "" {
		return fmt.Errorf("version cannot be empty")
	}
	return s.runner.Run(ctx, s.command("version", version), out)
}

func (s *npmService) Publish(ctx context.Context, out LineHandler) error {
	return s.runner.Run(ctx, s.command("publish"), out)
}
