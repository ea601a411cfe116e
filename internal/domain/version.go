package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// BumpKeywords lists the keywords accepted in place of an explicit version.
var BumpKeywords = []string{"major", "minor", "patch", "premajor", "preminor", "prepatch", "prerelease"}

// DefaultBump is used when no version argument is given.
const DefaultBump = "patch"

// Version wraps semver.Version for additional methods.
type Version struct {
	*semver.Version
}

// NewVersion creates a new Version from a string. A leading "v" is accepted,
// anything else must be a complete semantic version.
func NewVersion(s string) (*Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return &Version{v}, nil
}

// IsBumpKeyword reports whether s names a relative bump rather than a version.
func IsBumpKeyword(s string) bool {
	return slices.Contains(BumpKeywords, s)
}

// BumpMajor increments the major version.
func (v *Version) BumpMajor() *Version {
	newVer := v.IncMajor()
	return &Version{&newVer}
}

// BumpMinor increments the minor version.
func (v *Version) BumpMinor() *Version {
	newVer := v.IncMinor()
	return &Version{&newVer}
}

// BumpPatch increments the patch version.
func (v *Version) BumpPatch() *Version {
	newVer := v.IncPatch()
	return &Version{&newVer}
}

// Bump resolves a bump keyword against v the way `npm version` does.
// preid names the pre-release identifier used by the pre* keywords.
func (v *Version) Bump(keyword, preid string) (*Version, error) {
	major, minor, patch := v.Major(), v.Minor(), v.Patch()
	pre := v.Prerelease()
	switch keyword {
	case "major":
		// 2.0.0-rc.1 -> 2.0.0
		if pre == "" || minor != 0 || patch != 0 {
			return v.BumpMajor(), nil
		}
		return build(major, 0, 0, "")
	case "minor":
		if pre == "" || patch != 0 {
			return v.BumpMinor(), nil
		}
		return build(major, minor, 0, "")
	case "patch":
		if pre == "" {
			return v.BumpPatch(), nil
		}
		return build(major, minor, patch, "")
	case "premajor":
		return build(major+1, 0, 0, firstPrerelease(preid))
	case "preminor":
		return build(major, minor+1, 0, firstPrerelease(preid))
	case "prepatch":
		return build(major, minor, patch+1, firstPrerelease(preid))
	case "prerelease":
		if pre == "" {
			return build(major, minor, patch+1, firstPrerelease(preid))
		}
		return build(major, minor, patch, nextPrerelease(pre, preid))
	}
	return nil, fmt.Errorf("%w: unknown bump keyword %q", ErrInvalidVersion, keyword)
}

// Compare compares two versions.
func (v *Version) Compare(other *Version) int {
	return v.Version.Compare(other.Version)
}

// Tag returns the git tag name for the version.
func (v *Version) Tag(prefix string) string {
	return prefix + v.String()
}

// IsPrerelease reports whether the version carries a pre-release part.
func (v *Version) IsPrerelease() bool {
	return v.Prerelease() != ""
}

func build(major, minor, patch uint64, pre string) (*Version, error) {
	s := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if pre != "" {
		s += "-" + pre
	}
	// re-parse so an invalid preid is reported instead of producing a broken version
	return NewVersion(s)
}

func firstPrerelease(preid string) string {
	if preid == "" {
		return "0"
	}
	return preid + ".0"
}

func nextPrerelease(pre, preid string) string {
	parts := strings.Split(pre, ".")
	if preid != "" && parts[0] != preid {
		return preid + ".0"
	}
	last := parts[len(parts)-1]
	if n, err := strconv.ParseUint(last, 10, 64); err == nil {
		parts[len(parts)-1] = strconv.FormatUint(n+1, 10)
		return strings.Join(parts, ".")
	}
	return pre + ".0"
}
