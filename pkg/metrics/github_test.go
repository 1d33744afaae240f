package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGitHub points a provider at a stub API server.
func newTestGitHub(t *testing.T, handler http.HandlerFunc) *GitHub {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL
	return &GitHub{client: client}
}

func TestGitHub_Stars(t *testing.T) {
	provider := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/agents", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"full_name":"acme/agents","stargazers_count":1234}`))
	})

	stars, err := provider.Stars(context.Background(), "acme/agents")
	require.NoError(t, err)
	assert.Equal(t, 1234, stars)
}

func TestGitHub_Stars_InvalidRepo(t *testing.T) {
	provider := NewGitHub("")

	for _, repo := range []string{"", "no-slash", "/name", "owner/"} {
		_, err := provider.Stars(context.Background(), repo)
		assert.Error(t, err, "repo %q", repo)
	}
}

func TestGitHub_Stars_APIError(t *testing.T) {
	provider := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	_, err := provider.Stars(context.Background(), "acme/gone")
	assert.Error(t, err)
}
