package service

const (
	// GitBinary is the git executable used for mutating repository commands
	GitBinary = "git"
	// DefaultPackageManager is the package manager executable
	DefaultPackageManager = "npm"
	// DefaultTailLines is the number of output lines kept for error reports
	DefaultTailLines = 10
	// maxLineSize bounds a single output line read from a subprocess; longer
	// lines are truncated
	maxLineSize = 1024 * 1024
)
