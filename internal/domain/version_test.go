package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersion(t *testing.T) {
	t.Run("Should create valid version from string", func(t *testing.T) {
		version, err := NewVersion("1.2.3")
		require.NoError(t, err)
		assert.NotNil(t, version)
		assert.Equal(t, "1.2.3", version.String())
	})
	t.Run("Should return error for invalid version string", func(t *testing.T) {
		version, err := NewVersion("invalid")
		assert.ErrorIs(t, err, ErrInvalidVersion)
		assert.Nil(t, version)
	})
	t.Run("Should reject partial versions", func(t *testing.T) {
		_, err := NewVersion("1.2")
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})
	t.Run("Should handle version with v prefix", func(t *testing.T) {
		version, err := NewVersion("v1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", version.String())
		assert.Equal(t, "v1.2.3", version.Tag("v"))
	})
	t.Run("Should keep prerelease and build metadata", func(t *testing.T) {
		version, err := NewVersion("1.2.3-alpha.1+build123")
		require.NoError(t, err)
		assert.Equal(t, "1.2.3-alpha.1+build123", version.String())
		assert.True(t, version.IsPrerelease())
	})
}

func TestVersion_Bump(t *testing.T) {
	cases := []struct {
		name    string
		current string
		keyword string
		preid   string
		want    string
	}{
		{name: "major", current: "1.2.3", keyword: "major", want: "2.0.0"},
		{name: "major from major prerelease", current: "2.0.0-rc.1", keyword: "major", want: "2.0.0"},
		{name: "minor", current: "1.2.3", keyword: "minor", want: "1.3.0"},
		{name: "minor from minor prerelease", current: "1.3.0-0", keyword: "minor", want: "1.3.0"},
		{name: "minor from patch prerelease", current: "1.2.4-0", keyword: "minor", want: "1.3.0"},
		{name: "patch", current: "1.2.3", keyword: "patch", want: "1.2.4"},
		{name: "patch from prerelease", current: "1.2.4-0", keyword: "patch", want: "1.2.4"},
		{name: "premajor", current: "1.2.3", keyword: "premajor", want: "2.0.0-0"},
		{name: "premajor with preid", current: "1.2.3", keyword: "premajor", preid: "beta", want: "2.0.0-beta.0"},
		{name: "preminor", current: "1.2.3", keyword: "preminor", want: "1.3.0-0"},
		{name: "prepatch", current: "1.2.3", keyword: "prepatch", want: "1.2.4-0"},
		{name: "prepatch from prerelease", current: "1.2.4-0", keyword: "prepatch", want: "1.2.5-0"},
		{name: "prerelease from release", current: "1.2.3", keyword: "prerelease", want: "1.2.4-0"},
		{name: "prerelease increments counter", current: "1.2.4-0", keyword: "prerelease", want: "1.2.4-1"},
		{name: "prerelease increments named counter", current: "1.2.4-beta.1", keyword: "prerelease", want: "1.2.4-beta.2"},
		{name: "prerelease appends counter", current: "1.2.4-beta", keyword: "prerelease", want: "1.2.4-beta.0"},
		{name: "prerelease switches preid", current: "1.2.4-alpha.3", keyword: "prerelease", preid: "beta", want: "1.2.4-beta.0"},
	}
	for _, tc := range cases {
		t.Run("Should bump "+tc.name, func(t *testing.T) {
			current, err := NewVersion(tc.current)
			require.NoError(t, err)
			next, err := current.Bump(tc.keyword, tc.preid)
			require.NoError(t, err)
			assert.Equal(t, tc.want, next.String())
		})
	}
	t.Run("Should reject unknown keyword", func(t *testing.T) {
		current, err := NewVersion("1.0.0")
		require.NoError(t, err)
		_, err = current.Bump("huge", "")
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})
	t.Run("Should reject invalid preid", func(t *testing.T) {
		current, err := NewVersion("1.0.0")
		require.NoError(t, err)
		_, err = current.Bump("premajor", "not valid!")
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})
}

func TestVersion_Compare(t *testing.T) {
	t.Run("Should compare versions correctly", func(t *testing.T) {
		v1, err := NewVersion("1.2.3")
		require.NoError(t, err)
		v2, err := NewVersion("1.2.4")
		require.NoError(t, err)
		v3, err := NewVersion("1.2.3")
		require.NoError(t, err)
		assert.Equal(t, -1, v1.Compare(v2))
		assert.Equal(t, 1, v2.Compare(v1))
		assert.Equal(t, 0, v1.Compare(v3))
	})
	t.Run("Should order prereleases before the release", func(t *testing.T) {
		pre, err := NewVersion("2.0.0-0")
		require.NoError(t, err)
		rel, err := NewVersion("2.0.0")
		require.NoError(t, err)
		assert.Equal(t, -1, pre.Compare(rel))
	})
}

func TestIsBumpKeyword(t *testing.T) {
	assert.True(t, IsBumpKeyword("patch"))
	assert.True(t, IsBumpKeyword("prerelease"))
	assert.False(t, IsBumpKeyword("1.2.3"))
	assert.False(t, IsBumpKeyword(""))
}

func TestRelease_Range(t *testing.T) {
	v, err := NewVersion("1.2.3")
	require.NoError(t, err)
	release := &Release{Version: v, PreviousVersion: "1.2.2", TagPrefix: "v"}
	assert.Equal(t, "v1.2.3", release.TagName())
	assert.Equal(t, "v1.2.2", release.PreviousTagName())
	assert.Equal(t, "v1.2.2...v1.2.3", release.Range())
}
