package orchestrator

// Task titles shown while publishing.
const (
	TitleGit              = "Git"
	TitleCheckBranch      = "Check current branch"
	TitleCheckWorkingTree = "Check local working tree"
	TitleFetch            = "Fetch remote changes"
	TitleCheckRemote      = "Check remote history"
	TitleCheckTag         = "Check release tag"
	TitleCleanup          = "Cleanup"
	TitleInstall          = "Installing dependencies"
	TitleTests            = "Running tests"
	TitleBumpVersion      = "Bumping version"
	TitlePublish          = "Publishing package"
	TitlePushTags         = "Pushing tags"
	TitleChangelog        = "Changelog"
	TitleGitHubRelease    = "GitHub release"
)

// Commit messages created by a publish run.
const (
	DescriptorCommitFormat = "Bumping plugin version to %s"
	ChangelogCommitFormat  = "Updating changelog for %s"
)

// Skip reasons.
const (
	SkipAnyBranch   = "--any-branch"
	SkipCleanupFlag = "--skip-cleanup"
	SkipYolo        = "--yolo"
	SkipNoToken     = "no GitHub token configured"
)

// DefaultNodeModules is removed by the cleanup task.
const DefaultNodeModules = "node_modules"
