package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/repository"
	"go.uber.org/zap"
)

const (
	changelogHeader = "# Changelog\n\n"
	sectionMarker   = "## "
	changelogDate   = "2006-01-02"
)

// GenerateChangelogUseCase prepends a section for the new release to the changelog.
type GenerateChangelogUseCase struct {
	FsRepo  repository.FileSystemRepository
	GitRepo repository.GitRepository
	Path    string
	Remote  string
	Now     func() time.Time
	Logger  *zap.Logger
}

// Execute writes the changelog and returns the new section.
// release.PreviousVersion must hold the version recorded before the bump.
func (uc *GenerateChangelogUseCase) Execute(ctx context.Context, release *domain.Release) (string, error) {
	if release == nil || release.Version == nil {
		return "", fmt.Errorf("release version cannot be nil")
	}
	if release.PreviousVersion == "" {
		return "", fmt.Errorf("previous version is unknown")
	}
	existing, err := repository.ReadFileIfExists(uc.FsRepo, uc.Path)
	if err != nil {
		return "", err
	}
	rawURL, err := uc.GitRepo.RemoteURL(ctx, uc.Remote)
	if err != nil {
		return "", fmt.Errorf("failed to read remote url: %w", err)
	}
	remote, err := domain.ParseRemoteURL(rawURL)
	if err != nil {
		return "", err
	}
	compareFrom := release.PreviousTagName()
	exists, err := uc.GitRepo.TagExists(ctx, compareFrom)
	if err != nil {
		return "", fmt.Errorf("failed to look up tag %s: %w", compareFrom, err)
	}
	if !exists {
		uc.logger().Debug("previous tag missing, listing full history", zap.String("tag", compareFrom))
		compareFrom = ""
	}
	commits, err := uc.GitRepo.CommitsBetween(ctx, release.PreviousTagName(), release.TagName())
	if err != nil {
		return "", fmt.Errorf("failed to list commits for %s: %w", release.Range(), err)
	}
	uc.logger().Debug("collected changelog commits",
		zap.String("range", release.Range()),
		zap.Int("count", len(commits)))
	section := RenderChangelogSection(release, remote, compareFrom, commits, uc.now())
	content := changelogHeader + section
	if previous := stripPreamble(string(existing)); previous != "" {
		content += "\n" + previous
	}
	if err := repository.WriteFile(uc.FsRepo, uc.Path, []byte(content)); err != nil {
		return "", err
	}
	return section, nil
}

// RenderChangelogSection renders the markdown section for one release.
// compareFrom is the tag to diff against; when empty the section links the
// history of the new tag instead.
func RenderChangelogSection(
	release *domain.Release,
	remote domain.Remote,
	compareFrom string,
	commits []domain.Commit,
	date time.Time,
) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s (%s)\n\n", sectionMarker, release.Version, date.Format(changelogDate))
	if compareFrom != "" {
		fmt.Fprintf(&b, "[Compare changes](%s)\n", remote.CompareURL(compareFrom, release.TagName()))
	} else {
		fmt.Fprintf(&b, "[All changes](%s)\n", remote.HistoryURL(release.TagName()))
	}
	if len(commits) > 0 {
		b.WriteString("\n")
	}
	for _, c := range commits {
		fmt.Fprintf(&b, "- %s ([%s](%s))\n", c.Subject, c.ShortHash(), remote.CommitURL(c.Hash))
	}
	return b.String()
}

// stripPreamble drops everything before the first release section.
func stripPreamble(content string) string {
	if strings.HasPrefix(content, sectionMarker) {
		return content
	}
	idx := strings.Index(content, "\n"+sectionMarker)
	if idx < 0 {
		return ""
	}
	return content[idx+1:]
}

func (uc *GenerateChangelogUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func (uc *GenerateChangelogUseCase) logger() *zap.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return zap.NewNop()
}
