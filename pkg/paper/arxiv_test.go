package paper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: search_query=&amp;id_list=2608.01234</title>
  <entry>
    <id>http://arxiv.org/abs/2608.01234v2</id>
    <title>Scaling Laws for
      Paper Hype</title>
    <summary>We study hype.</summary>
    <published>2026-08-02T17:00:00Z</published>
    <updated>2026-08-10T09:00:00Z</updated>
    <author><name>Ada Lovelace</name></author>
    <author><name>Edsger Dijkstra</name></author>
    <link href="http://arxiv.org/abs/2608.01234v2" rel="alternate" type="text/html"/>
  </entry>
</feed>`

const arxivEmptyFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: search_query=&amp;id_list=9999.00000</title>
</feed>`

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/query", r.URL.Path)
		assert.Equal(t, "2608.01234", r.URL.Query().Get("id_list"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivFeedFixture))
	}))
	defer server.Close()

	resolver := NewArxivResolver(server.URL)
	meta, err := resolver.Resolve(context.Background(), "arXiv:2608.01234v2")
	require.NoError(t, err)

	assert.Equal(t, "2608.01234", meta.ArxivID)
	assert.Equal(t, "Scaling Laws for Paper Hype", meta.Title)
	assert.Equal(t, "Ada Lovelace, Edsger Dijkstra", meta.Authors)
	assert.Equal(t, time.Date(2026, 8, 2, 17, 0, 0, 0, time.UTC), meta.Published)
}

func TestResolve_UnknownID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivEmptyFeedFixture))
	}))
	defer server.Close()

	resolver := NewArxivResolver(server.URL)
	_, err := resolver.Resolve(context.Background(), "9999.00000")
	assert.ErrorContains(t, err, "not found")
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2608.01234", "2608.01234"},
		{"2608.01234v3", "2608.01234"},
		{"arXiv:2608.01234", "2608.01234"},
		{" arxiv:2608.01234v1 ", "2608.01234"},
		{"cs/0112017", "cs/0112017"},        // old-style id, no version
		{"hep-th/9901001v2", "hep-th/9901001"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeID(tt.in), "input %q", tt.in)
	}
}
