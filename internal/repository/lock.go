package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pluginpub/pluginpub/internal/domain"
)

// LockFileName is the lock file created inside the git directory.
const LockFileName = "pluginpub.lock"

// RunLock is an exclusive, process-wide lock held for the duration of a publish run.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock at path without waiting.
// It returns domain.ErrReleaseInProgress when another process holds it.
func AcquireRunLock(path string) (*RunLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), StateDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: lock held at %s", domain.ErrReleaseInProgress, path)
	}
	return &RunLock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.lock.Path()
}

// Release unlocks the lock file. The file itself is left in place.
func (l *RunLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.lock.Path(), err)
	}
	return nil
}
