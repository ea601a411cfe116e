package domain

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// scpLikeURL matches "git@host:owner/repo.git".
var scpLikeURL = regexp.MustCompile(`^(?:[^@/]+@)?([^:/]+):(.+)$`)

// Remote identifies the hosted repository a release is pushed to.
type Remote struct {
	Host  string
	Path  string // full repository path, e.g. "owner/repo" or "group/sub/repo"
	Owner string
	Name  string
}

// ParseRemoteURL extracts the repository identity from a git remote URL.
// https, ssh, scp-like and plain path remotes are supported.
func ParseRemoteURL(raw string) (Remote, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Remote{}, fmt.Errorf("remote url is empty")
	}
	var host, path string
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Remote{}, fmt.Errorf("invalid remote url %q: %w", raw, err)
		}
		host, path = u.Hostname(), u.Path
	case scpLikeURL.MatchString(raw):
		m := scpLikeURL.FindStringSubmatch(raw)
		host, path = m[1], m[2]
	default:
		path = filepath.ToSlash(raw)
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[len(segments)-1] == "" || segments[len(segments)-2] == "" {
		return Remote{}, fmt.Errorf("remote url %q does not name an owner and repository", raw)
	}
	owner, name := segments[len(segments)-2], segments[len(segments)-1]
	if host != "" {
		path = strings.Join(segments, "/")
	} else {
		path = owner + "/" + name
	}
	return Remote{Host: host, Path: path, Owner: owner, Name: name}, nil
}

// WebURL returns the browsable repository URL.
func (r Remote) WebURL() string {
	host := r.Host
	if host == "" {
		host = "github.com"
	}
	return "https://" + host + "/" + r.Path
}

// CompareURL links the diff between two refs.
func (r Remote) CompareURL(from, to string) string {
	return fmt.Sprintf("%s/compare/%s...%s", r.WebURL(), from, to)
}

// HistoryURL links the commit list reachable from ref.
func (r Remote) HistoryURL(ref string) string {
	return r.WebURL() + "/commits/" + ref
}

// CommitURL links a single commit.
func (r Remote) CommitURL(hash string) string {
	return r.WebURL() + "/commit/" + hash
}
