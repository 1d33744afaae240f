package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultSemanticScholarURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholar fetches citation counts from the Semantic Scholar Graph
// API by arXiv id.
type SemanticScholar struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewSemanticScholar creates a citation provider. baseURL and apiKey are
// optional; the public endpoint allows unauthenticated, rate-limited use.
func NewSemanticScholar(baseURL, apiKey string) *SemanticScholar {
	if baseURL == "" {
		baseURL = defaultSemanticScholarURL
	}
	return &SemanticScholar{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (s *SemanticScholar) Citations(ctx context.Context, arxivID string) (int, bool, error) {
	reqURL := fmt.Sprintf("%s/paper/arXiv:%s?fields=citationCount", s.baseURL, arxivID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, false, fmt.Errorf("create citations request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("fetch citations %s: %w", arxivID, err)
	}
	defer resp.Body.Close()

	// Not indexed yet: expected for fresh papers.
	if resp.StatusCode == http.StatusNotFound {
		return 0, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("citations API status %d for %s", resp.StatusCode, arxivID)
	}

	var body struct {
		CitationCount int `json:"citationCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, false, fmt.Errorf("decode citations response: %w", err)
	}
	return body.CitationCount, true, nil
}
