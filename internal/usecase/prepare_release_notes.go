package usecase

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/pluginpub/pluginpub/internal/domain"
)

// PrepareReleaseNotesUseCase renders the GitHub release body from the changelog section.
type PrepareReleaseNotesUseCase struct {
	PackageName string
}

// sanitizeChangelogContent escapes HTML while keeping markdown headers, lists and links readable.
func (uc *PrepareReleaseNotesUseCase) sanitizeChangelogContent(changelog string) string {
	if changelog == "" {
		return ""
	}
	sanitized := html.EscapeString(changelog)
	// angle brackets stay escaped
	replacements := map[string]string{
		"&#34;": "\"",
		"&#39;": "'",
		"&amp;": "&",
	}
	lines := strings.Split(sanitized, "\n")
	for i, line := range lines {
		if after, ok := strings.CutPrefix(line, "&gt; "); ok {
			lines[i] = "> " + after
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "[") {
			for escaped, original := range replacements {
				lines[i] = strings.ReplaceAll(lines[i], escaped, original)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// dropSectionHeader removes the "## <version> (<date>)" line; the release title carries it.
func dropSectionHeader(section string) string {
	if strings.HasPrefix(section, sectionMarker) {
		_, rest, _ := strings.Cut(section, "\n")
		return strings.TrimLeft(rest, "\n")
	}
	return section
}

// Execute renders the release body.
func (uc *PrepareReleaseNotesUseCase) Execute(_ context.Context, release *domain.Release) (string, error) {
	if release == nil {
		return "", fmt.Errorf("release cannot be nil")
	}
	if release.Version == nil {
		return "", fmt.Errorf("release version cannot be nil")
	}
	data := struct {
		Package   string
		Version   string
		Changelog string
	}{
		Package:   html.EscapeString(uc.PackageName),
		Version:   html.EscapeString(release.Version.String()),
		Changelog: strings.TrimSpace(uc.sanitizeChangelogContent(dropSectionHeader(release.Changelog))),
	}
	tmpl, err := template.New("release-notes").Option("missingkey=error").Parse(releaseNotesTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse release notes template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute release notes template: %w", err)
	}
	output := buf.String()
	lower := strings.ToLower(output)
	if strings.Contains(lower, "<script") ||
		strings.Contains(lower, "javascript:") ||
		strings.Contains(output, "{{") || strings.Contains(output, "}}") {
		return "", fmt.Errorf("potential injection detected in release notes")
	}
	return output, nil
}

const releaseNotesTemplate = `{{if .Package}}Published ` + "`{{.Package}}@{{.Version}}`" + `.
{{else}}Release {{.Version}}.
{{end}}
{{.Changelog}}
`
