package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v74/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGithubRepository(t *testing.T, handler http.HandlerFunc) *githubRepository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := github.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL
	return newGithubRepository(client, "acme", "plugin", nil)
}

func TestGithubRepository_CreateRelease(t *testing.T) {
	t.Run("Should post the release and return its url", func(t *testing.T) {
		var got github.RepositoryRelease
		repo := newTestGithubRepository(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/repos/acme/plugin/releases", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"html_url":"https://github.com/acme/plugin/releases/tag/v1.2.3"}`))
		})

		link, err := repo.CreateRelease(context.Background(), ReleaseRequest{
			Tag:  "v1.2.3",
			Body: "## 1.2.3",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/acme/plugin/releases/tag/v1.2.3", link)
		assert.Equal(t, "v1.2.3", got.GetTagName())
		assert.Equal(t, "v1.2.3", got.GetName())
		assert.Equal(t, "## 1.2.3", got.GetBody())
		assert.False(t, got.GetPrerelease())
	})
	t.Run("Should wrap API errors", func(t *testing.T) {
		repo := newTestGithubRepository(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
		})
		_, err := repo.CreateRelease(context.Background(), ReleaseRequest{Tag: "v1.2.3"})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "acme/plugin"))
	})
	t.Run("Should reject empty tag", func(t *testing.T) {
		repo := newGithubRepository(github.NewClient(nil), "acme", "plugin", nil)
		_, err := repo.CreateRelease(context.Background(), ReleaseRequest{})
		assert.Error(t, err)
	})
}

func TestNewGithubRepository(t *testing.T) {
	t.Run("Should reject malformed tokens", func(t *testing.T) {
		_, err := NewGithubRepository("short", "acme", "plugin", nil)
		assert.ErrorContains(t, err, "invalid GitHub token")
	})
	t.Run("Should reject invalid owner", func(t *testing.T) {
		_, err := NewGithubRepository(strings.Repeat("a", 40), "-bad", "plugin", nil)
		assert.ErrorContains(t, err, "invalid repository configuration")
	})
}
