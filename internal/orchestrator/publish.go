package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/output"
	"github.com/pluginpub/pluginpub/internal/repository"
	"github.com/pluginpub/pluginpub/internal/service"
	"github.com/pluginpub/pluginpub/internal/usecase"
	"go.uber.org/zap"
)

// PublishConfig holds the per-invocation flags.
type PublishConfig struct {
	Input       string
	PreID       string
	AnyBranch   bool
	SkipCleanup bool
	Yolo        bool
}

// PublishOptions holds the repository layout and behavior settings.
type PublishOptions struct {
	Branch         string
	Remote         string
	DescriptorPath string
	ChangelogPath  string
	ManifestPath   string
	NodeModules    string
	TagPrefix      string
	GitHubRelease  bool
	// LockPath is the run lock file; empty disables locking.
	LockPath string
}

// PublishDeps are the collaborators of a publish run.
type PublishDeps struct {
	FsRepo     repository.FileSystemRepository
	GitRepo    repository.GitRepository
	GitSvc     service.GitService
	PkgManager service.PackageManager
	StateRepo  repository.StateRepository
	// ReleaseRepo is nil when no GitHub token is configured.
	ReleaseRepo repository.ReleaseRepository
	Renderer    output.Renderer
	Logger      *zap.Logger
	Now         func() time.Time
}

// PublishOrchestrator runs the publish pipeline.
type PublishOrchestrator struct {
	deps PublishDeps
	opts PublishOptions
}

// NewPublishOrchestrator creates a new publish orchestrator.
func NewPublishOrchestrator(deps PublishDeps, opts PublishOptions) *PublishOrchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.NodeModules == "" {
		opts.NodeModules = DefaultNodeModules
	}
	return &PublishOrchestrator{deps: deps, opts: opts}
}

// Execute validates the version, runs every task and returns the published manifest.
func (o *PublishOrchestrator) Execute(ctx context.Context, cfg PublishConfig) (*domain.Package, error) {
	resolver := &usecase.ResolveVersionUseCase{FsRepo: o.deps.FsRepo, ManifestPath: o.opts.ManifestPath}
	version, pkg, err := resolver.Execute(ctx, cfg.Input, cfg.PreID)
	if err != nil {
		return nil, err
	}
	o.deps.Logger.Debug("resolved version",
		zap.String("package", pkg.Name),
		zap.String("current", pkg.Version),
		zap.String("next", version.String()))
	if o.opts.LockPath != "" {
		lock, err := repository.AcquireRunLock(o.opts.LockPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				o.deps.Logger.Warn("failed to release run lock", zap.Error(err))
			}
		}()
	}
	release := &domain.Release{Version: version, TagPrefix: o.opts.TagPrefix}
	pipeline := NewPipeline(o.deps.StateRepo, o.deps.Renderer, o.deps.Logger)
	pipeline.State().Version = version.String()
	for _, task := range o.buildTasks(cfg, pkg, release, pipeline.State()) {
		pipeline.AddTask(task)
	}
	if err := pipeline.Execute(ctx); err != nil {
		return nil, err
	}
	return usecase.ReadManifest(o.deps.FsRepo, o.opts.ManifestPath)
}

func (o *PublishOrchestrator) buildTasks(
	cfg PublishConfig,
	pkg *domain.Package,
	release *domain.Release,
	state *domain.RunState,
) []Task {
	cleanupSkip := ""
	switch {
	case cfg.Yolo:
		cleanupSkip = SkipYolo
	case cfg.SkipCleanup:
		cleanupSkip = SkipCleanupFlag
	}
	testSkip := ""
	if cfg.Yolo {
		testSkip = SkipYolo
	}
	tasks := []Task{
		o.gitTasks(cfg, release),
		{
			Title: TitleCleanup,
			Skip:  cleanupSkip,
			Run: func(_ context.Context, _ service.LineHandler) error {
				if err := o.deps.FsRepo.RemoveAll(o.opts.NodeModules); err != nil {
					return fmt.Errorf("failed to remove %s: %w", o.opts.NodeModules, err)
				}
				return nil
			},
		},
		{
			Title: TitleInstall,
			Skip:  cleanupSkip,
			Run:   o.deps.PkgManager.Install,
		},
		{
			Title: TitleTests,
			Skip:  testSkip,
			Run:   o.deps.PkgManager.Test,
		},
		o.descriptorTasks(release, state),
		{
			Title: TitleBumpVersion,
			Run: func(ctx context.Context, out service.LineHandler) error {
				return o.deps.PkgManager.Version(ctx, release.Version.String(), out)
			},
		},
		{
			Title: TitlePublish,
			Run:   o.deps.PkgManager.Publish,
		},
		{
			Title: TitlePushTags,
			Run:   o.deps.GitSvc.PushFollowTags,
		},
		o.changelogTasks(release),
	}
	if o.opts.GitHubRelease {
		tasks = append(tasks, o.githubReleaseTask(pkg, release))
	}
	return tasks
}

func (o *PublishOrchestrator) gitTasks(cfg PublishConfig, release *domain.Release) Task {
	checks := &usecase.PreconditionsUseCase{
		GitRepo: o.deps.GitRepo,
		GitSvc:  o.deps.GitSvc,
		Branch:  o.opts.Branch,
	}
	branchSkip := ""
	if cfg.AnyBranch {
		branchSkip = SkipAnyBranch
	}
	return Task{
		Title: TitleGit,
		Subtasks: []Task{
			{
				Title: TitleCheckBranch,
				Skip:  branchSkip,
				Run: func(ctx context.Context, _ service.LineHandler) error {
					return checks.CheckBranch(ctx)
				},
			},
			{
				Title: TitleCheckWorkingTree,
				Run: func(ctx context.Context, _ service.LineHandler) error {
					return checks.CheckWorkingTree(ctx)
				},
			},
			{
				Title: TitleFetch,
				Run:   checks.FetchRemote,
			},
			{
				Title: TitleCheckRemote,
				Run: func(ctx context.Context, _ service.LineHandler) error {
					return checks.CheckRemoteHistory(ctx)
				},
			},
			{
				Title: TitleCheckTag,
				Run: func(ctx context.Context, _ service.LineHandler) error {
					return checks.CheckTagAvailable(ctx, release.TagName())
				},
			},
		},
	}
}

func (o *PublishOrchestrator) descriptorTasks(release *domain.Release, state *domain.RunState) Task {
	name := filepath.Base(o.opts.DescriptorPath)
	updater := &usecase.UpdateDescriptorUseCase{FsRepo: o.deps.FsRepo, Path: o.opts.DescriptorPath}
	return Task{
		Title: name,
		Subtasks: []Task{
			{
				Title: "Update " + name,
				Run: func(ctx context.Context, _ service.LineHandler) error {
					previous, err := updater.Execute(ctx, release.Version.String())
					if err != nil {
						return err
					}
					release.PreviousVersion = previous
					state.PreviousVersion = previous
					o.deps.Logger.Debug("updated descriptor",
						zap.String("path", o.opts.DescriptorPath),
						zap.String("previous", previous))
					return nil
				},
			},
			{
				Title: "Stage " + name,
				Run: func(ctx context.Context, out service.LineHandler) error {
					return o.deps.GitSvc.Add(ctx, []string{o.opts.DescriptorPath}, out)
				},
			},
			{
				Title: "Commit " + name,
				Run: func(ctx context.Context, out service.LineHandler) error {
					return o.deps.GitSvc.Commit(ctx, fmt.Sprintf(DescriptorCommitFormat, release.Version), out)
				},
			},
		},
	}
}

func (o *PublishOrchestrator) changelogTasks(release *domain.Release) Task {
	generator := &usecase.GenerateChangelogUseCase{
		FsRepo:  o.deps.FsRepo,
		GitRepo: o.deps.GitRepo,
		Path:    o.opts.ChangelogPath,
		Remote:  o.opts.Remote,
		Now:     o.deps.Now,
		Logger:  o.deps.Logger,
	}
	return Task{
		Title: TitleChangelog,
		Subtasks: []Task{
			{
				Title: "Update " + filepath.Base(o.opts.ChangelogPath),
				Run: func(ctx context.Context, _ service.LineHandler) error {
					section, err := generator.Execute(ctx, release)
					if err != nil {
						return err
					}
					release.Changelog = section
					return nil
				},
			},
			{
				Title: "Stage changelog",
				Run: func(ctx context.Context, out service.LineHandler) error {
					return o.deps.GitSvc.Add(ctx, []string{o.opts.ChangelogPath}, out)
				},
			},
			{
				Title: "Commit changelog",
				Run: func(ctx context.Context, out service.LineHandler) error {
					return o.deps.GitSvc.Commit(ctx, fmt.Sprintf(ChangelogCommitFormat, release.Version), out)
				},
			},
			{
				Title: "Push changelog",
				Run:   o.deps.GitSvc.Push,
			},
		},
	}
}

func (o *PublishOrchestrator) githubReleaseTask(pkg *domain.Package, release *domain.Release) Task {
	task := Task{Title: TitleGitHubRelease}
	if o.deps.ReleaseRepo == nil {
		task.Skip = SkipNoToken
		return task
	}
	notes := &usecase.PrepareReleaseNotesUseCase{PackageName: pkg.Name}
	task.Run = func(ctx context.Context, out service.LineHandler) error {
		body, err := notes.Execute(ctx, release)
		if err != nil {
			return err
		}
		link, err := o.deps.ReleaseRepo.CreateRelease(ctx, repository.ReleaseRequest{
			Tag:        release.TagName(),
			Name:       release.TagName(),
			Body:       body,
			Prerelease: release.Version.IsPrerelease(),
		})
		if err != nil {
			return err
		}
		out(link)
		return nil
	}
	return task
}
