// Package paper resolves paper metadata when a paper is registered for
// tracking. The scoring engine needs a known publication date, so metadata
// resolution happens up front, once, at registration time.
package paper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultArxivURL = "https://export.arxiv.org"

// Metadata is what the arXiv API knows about a paper.
type Metadata struct {
	ArxivID   string
	Title     string
	Authors   string
	URL       string
	Published time.Time
}

// ArxivResolver looks up paper metadata via the arXiv Atom API.
type ArxivResolver struct {
	client  *http.Client
	parser  *gofeed.Parser
	baseURL string
}

// NewArxivResolver creates a resolver. baseURL is optional and defaults to
// the public arXiv endpoint.
func NewArxivResolver(baseURL string) *ArxivResolver {
	if baseURL == "" {
		baseURL = defaultArxivURL
	}
	return &ArxivResolver{
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		baseURL: baseURL,
	}
}

// Resolve fetches metadata for one arXiv id. Version suffixes ("v2") are
// stripped so the id stays stable across paper revisions.
func (r *ArxivResolver) Resolve(ctx context.Context, arxivID string) (*Metadata, error) {
	id := NormalizeID(arxivID)
	if id == "" {
		return nil, fmt.Errorf("empty arxiv id")
	}

	reqURL := fmt.Sprintf("%s/api/query?id_list=%s&max_results=1", r.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create arxiv request: %w", err)
	}
	req.Header.Set("User-Agent", "hypepaper/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch arxiv %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv status %d for %s", resp.StatusCode, id)
	}

	feed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse arxiv feed %s: %w", id, err)
	}

	// The API answers unknown ids with an empty feed or an entry without a
	// publication date.
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("arxiv id %s not found", id)
	}
	entry := feed.Items[0]
	if entry.PublishedParsed == nil {
		return nil, fmt.Errorf("arxiv id %s not found", id)
	}

	var authors []string
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	return &Metadata{
		ArxivID:   id,
		Title:     strings.Join(strings.Fields(entry.Title), " "),
		Authors:   strings.Join(authors, ", "),
		URL:       entry.Link,
		Published: entry.PublishedParsed.UTC(),
	}, nil
}

// NormalizeID trims whitespace, an "arxiv:" prefix, and a trailing version
// suffix from an arXiv id: " arXiv:2608.01234v3 " -> "2608.01234".
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	if i := strings.LastIndexByte(id, 'v'); i > 0 {
		suffix := id[i+1:]
		if suffix != "" && strings.Trim(suffix, "0123456789") == "" {
			id = id[:i]
		}
	}
	return id
}
