package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/repository"
)

// ResolveVersionUseCase turns the version argument into a concrete version.
type ResolveVersionUseCase struct {
	FsRepo       repository.FileSystemRepository
	ManifestPath string
}

// Execute validates input and resolves it against the manifest version.
// An invalid explicit version is rejected before the manifest is read.
func (uc *ResolveVersionUseCase) Execute(
	_ context.Context,
	input, preid string,
) (*domain.Version, *domain.Package, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		input = domain.DefaultBump
	}
	var explicit *domain.Version
	if !domain.IsBumpKeyword(input) {
		v, err := domain.NewVersion(input)
		if err != nil {
			return nil, nil, err
		}
		explicit = v
	}
	pkg, err := ReadManifest(uc.FsRepo, uc.ManifestPath)
	if err != nil {
		return nil, nil, err
	}
	current, err := domain.NewVersion(pkg.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid version in %s: %w", uc.ManifestPath, err)
	}
	if explicit == nil {
		next, err := current.Bump(input, preid)
		if err != nil {
			return nil, nil, err
		}
		return next, pkg, nil
	}
	if explicit.Compare(current) <= 0 {
		return nil, nil, fmt.Errorf("%w: %s must be greater than the current version %s",
			domain.ErrInvalidVersion, explicit, current)
	}
	return explicit, pkg, nil
}

// ReadManifest parses the package manifest at path.
func ReadManifest(fs repository.FileSystemRepository, path string) (*domain.Package, error) {
	data, err := repository.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var pkg domain.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if pkg.Name == "" {
		return nil, fmt.Errorf("%s has no package name", path)
	}
	pkg.Path = path
	return &pkg, nil
}
