package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// GitHub fetches star counts through the GitHub REST API. Unauthenticated
// clients work but hit the low anonymous rate limit quickly.
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a star provider, authenticated when a token is given.
func NewGitHub(token string) *GitHub {
	var client *github.Client
	if token == "" {
		client = github.NewClient(nil)
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}
	return &GitHub{client: client}
}

func (g *GitHub) Stars(ctx context.Context, repo string) (int, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return 0, fmt.Errorf("invalid repo %q, want owner/name", repo)
	}

	r, _, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return 0, fmt.Errorf("fetch repo %s: %w", repo, err)
	}
	return r.GetStargazersCount(), nil
}
