// Package metrics fetches current metric readings from external sources.
// Providers are the daily batch's collaborators: each returns a point-in-
// time value that the batch freezes into that day's snapshot.
package metrics

import "context"

// StarProvider returns the current star count of a repository ("owner/name").
type StarProvider interface {
	Stars(ctx context.Context, repo string) (int, error)
}

// CitationProvider returns the current citation count of a paper by arXiv
// id. indexed is false when the citation source does not know the paper
// yet, which is an expected state for fresh papers, not an error.
type CitationProvider interface {
	Citations(ctx context.Context, arxivID string) (count int, indexed bool, err error)
}
