package repository

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// FileSystemRepository defines the interface for filesystem operations.
type FileSystemRepository interface {
	afero.Fs
}

// DefaultFilePermissions is used when a written file did not exist before.
const DefaultFilePermissions = 0644

// ReadFile reads path, reporting the path with any failure.
func ReadFile(fs FileSystemRepository, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// ReadFileIfExists behaves like ReadFile but returns nil data for a missing file.
func ReadFileIfExists(fs FileSystemRepository, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile replaces the content of path, keeping the mode of an existing file.
func WriteFile(fs FileSystemRepository, path string, data []byte) error {
	mode := os.FileMode(DefaultFilePermissions)
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := afero.WriteFile(fs, path, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
