package cmd

import (
	"context"
	"io"
	"path/filepath"

	"github.com/pluginpub/pluginpub/internal/config"
	"github.com/pluginpub/pluginpub/internal/logger"
	"github.com/pluginpub/pluginpub/internal/orchestrator"
	"github.com/pluginpub/pluginpub/internal/output"
	"github.com/pluginpub/pluginpub/internal/repository"
	"github.com/pluginpub/pluginpub/internal/service"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application.
type container struct {
	cfg    *config.Config
	logger *zap.Logger

	fsRepo      repository.FileSystemRepository
	gitRepo     repository.GitRepository
	stateRepo   repository.StateRepository
	releaseRepo repository.ReleaseRepository
	gitSvc      service.GitService
	npmSvc      service.PackageManager
	renderer    output.Renderer
	gitDir      string
}

// newContainer wires the dependencies for the package in dir, which must be absolute.
func newContainer(ctx context.Context, dir string, verbose bool, out io.Writer) (*container, error) {
	log := logger.New(verbose)
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	gitRepo, err := repository.NewGitRepository(dir, log)
	if err != nil {
		return nil, err
	}
	gitDir, err := gitRepo.GitDir(ctx)
	if err != nil {
		return nil, err
	}
	osFs := afero.NewOsFs()
	fsRepo := repository.FileSystemRepository(afero.NewBasePathFs(osFs, dir))
	stateRepo := repository.NewJSONStateRepository(osFs, filepath.Join(gitDir, repository.StateDirName))

	// GitHub releases are optional - only create the client if a token is provided
	var releaseRepo repository.ReleaseRepository
	if cfg.CanCreateGitHubRelease() {
		releaseRepo, err = repository.NewGithubRepository(cfg.GithubToken, cfg.GithubOwner, cfg.GithubRepo, log)
		if err != nil {
			return nil, err
		}
	}

	runner := service.NewCommandRunner(log)
	return &container{
		cfg:         cfg,
		logger:      log,
		fsRepo:      fsRepo,
		gitRepo:     gitRepo,
		stateRepo:   stateRepo,
		releaseRepo: releaseRepo,
		gitSvc:      service.NewGitService(runner, dir),
		npmSvc:      service.NewNpmService(runner, dir, cfg.PackageManager),
		renderer:    output.NewTaskRenderer(out, output.DetectTerminalCapabilities()),
		gitDir:      gitDir,
	}, nil
}

func (c *container) publishOrchestrator() *orchestrator.PublishOrchestrator {
	return orchestrator.NewPublishOrchestrator(
		orchestrator.PublishDeps{
			FsRepo:      c.fsRepo,
			GitRepo:     c.gitRepo,
			GitSvc:      c.gitSvc,
			PkgManager:  c.npmSvc,
			StateRepo:   c.stateRepo,
			ReleaseRepo: c.releaseRepo,
			Renderer:    c.renderer,
			Logger:      c.logger,
		},
		orchestrator.PublishOptions{
			Branch:         c.cfg.Branch,
			Remote:         c.cfg.Remote,
			DescriptorPath: c.cfg.Descriptor,
			ChangelogPath:  c.cfg.Changelog,
			ManifestPath:   c.cfg.Manifest,
			TagPrefix:      c.cfg.TagPrefix,
			GitHubRelease:  c.cfg.GithubRelease,
			LockPath:       filepath.Join(c.gitDir, repository.LockFileName),
		},
	)
}

func (c *container) close() {
	// stderr sync fails on some terminals
	_ = c.logger.Sync()
}
