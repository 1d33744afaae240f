package scheduler

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypepaper/hypepaper/internal/store"
	"github.com/hypepaper/hypepaper/pkg/hype"
)

type stubStars struct {
	counts map[string]int
	err    error
}

func (s *stubStars) Stars(ctx context.Context, repo string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	count, ok := s.counts[repo]
	if !ok {
		return 0, errors.New("unknown repo")
	}
	return count, nil
}

type stubCitations struct {
	counts map[string]int
}

func (s *stubCitations) Citations(ctx context.Context, arxivID string) (int, bool, error) {
	count, ok := s.counts[arxivID]
	return count, ok, nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addPaper(t *testing.T, s store.Store, p store.Paper) {
	t.Helper()
	if p.Title == "" {
		p.Title = "Paper " + p.ID
	}
	require.NoError(t, s.CreatePaper(context.Background(), &p))
}

var asOf = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func TestRunBatch_SnapshotsAndScores(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	addPaper(t, db, store.Paper{
		ID: "arxiv:2608.00001", ArxivID: "2608.00001", Repo: "acme/agents",
		Topic: "llm-agents", PublishedAt: asOf.AddDate(0, 0, -10),
	})

	sched := New(db,
		&stubStars{counts: map[string]int{"acme/agents": 500}},
		&stubCitations{counts: map[string]int{"2608.00001": 12}},
		nil,
		Options{Formula: hype.FormulaV1Recency},
	)

	require.NoError(t, sched.RunBatch(ctx, asOf))

	snap, err := db.SnapshotOn(ctx, "arxiv:2608.00001", "2026-08-26")
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.NotNil(t, snap.GithubStars)
	assert.Equal(t, 500, *snap.GithubStars)
	require.NotNil(t, snap.CitationCount)
	assert.Equal(t, 12, *snap.CitationCount)

	scores, err := db.ListScores(ctx, store.ScoreListOpts{Date: "2026-08-26"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	sc := scores[0]
	assert.Equal(t, "v1-recency", sc.Formula)
	// First day of history: no baselines, so velocity terms are 0. The
	// paper is its own comparison-set leader, so absolute normalizes to 1,
	// and at 10 days old recency is 1: (0.2 + 0.1) * 100.
	assert.InDelta(t, 30.0, sc.TotalScore, 1e-9)
	assert.InDelta(t, 1.0, sc.AbsoluteMetricsScore, 1e-9)
	assert.Equal(t, "stable", sc.Trend)
}

func TestRunBatch_FetchFailureIsIsolated(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	addPaper(t, db, store.Paper{
		ID: "p-broken", ArxivID: "2608.11111", Repo: "acme/broken",
		Topic: "t", PublishedAt: asOf.AddDate(0, 0, -5),
	})
	addPaper(t, db, store.Paper{
		ID: "p-fine", ArxivID: "2608.22222", Repo: "acme/fine",
		Topic: "t", PublishedAt: asOf.AddDate(0, 0, -5),
	})

	stars := &stubStars{counts: map[string]int{"acme/fine": 300}} // acme/broken errors
	cites := &stubCitations{counts: map[string]int{"2608.11111": 4, "2608.22222": 9}}

	// Tiny fetch timeout keeps the failing paper's retry backoff short.
	sched := New(db, stars, cites, nil, Options{FetchTimeout: 10 * time.Millisecond})

	require.NoError(t, sched.RunBatch(ctx, asOf))

	// The broken paper still gets a snapshot (stars absent) and a score.
	snap, err := db.SnapshotOn(ctx, "p-broken", "2026-08-26")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Nil(t, snap.GithubStars)
	require.NotNil(t, snap.CitationCount)
	assert.Equal(t, 4, *snap.CitationCount)

	scores, err := db.ListScores(ctx, store.ScoreListOpts{Date: "2026-08-26"})
	require.NoError(t, err)
	assert.Len(t, scores, 2)
}

func TestRunBatch_SharedComparisonDenominator(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	addPaper(t, db, store.Paper{ID: "small", Repo: "acme/small", Topic: "t", PublishedAt: asOf.AddDate(0, 0, -90)})
	addPaper(t, db, store.Paper{ID: "big", Repo: "acme/big", Topic: "t", PublishedAt: asOf.AddDate(0, 0, -90)})

	stars := &stubStars{counts: map[string]int{"acme/small": 100, "acme/big": 1000}}
	sched := New(db, stars, &stubCitations{}, nil, Options{Comparison: "topic"})

	require.NoError(t, sched.RunBatch(ctx, asOf))

	scores, err := db.ListScores(ctx, store.ScoreListOpts{Date: "2026-08-26"})
	require.NoError(t, err)
	require.Len(t, scores, 2)

	byID := map[string]store.RankedPaper{}
	for _, sc := range scores {
		byID[sc.PaperID] = sc
	}
	// Both papers normalize against the same in-topic maximum of 1000.
	assert.InDelta(t, 1.0, byID["big"].AbsoluteMetricsScore, 1e-9)
	assert.InDelta(t, math.Log10(101)/math.Log10(1001), byID["small"].AbsoluteMetricsScore, 1e-9)
}

func TestRunBatch_VelocityFromLookbacks(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	addPaper(t, db, store.Paper{
		ID: "p1", ArxivID: "2607.00001", Repo: "acme/repo",
		PublishedAt: asOf.AddDate(0, 0, -45),
	})

	// History: exactly 7 days back for stars, and an older snapshot that
	// serves as the nearest-earlier 30-day citation baseline.
	stars50 := 50
	cites10 := 10
	require.NoError(t, db.AddSnapshot(ctx, &store.Snapshot{
		PaperID: "p1", SnapshotDate: store.DateOf(asOf.AddDate(0, 0, -7)),
		GithubStars: &stars50, CitationCount: &cites10,
	}))
	cites8 := 8
	stars30 := 30
	require.NoError(t, db.AddSnapshot(ctx, &store.Snapshot{
		PaperID: "p1", SnapshotDate: store.DateOf(asOf.AddDate(0, 0, -33)),
		GithubStars: &stars30, CitationCount: &cites8,
	}))

	sched := New(db,
		&stubStars{counts: map[string]int{"acme/repo": 100}},
		&stubCitations{counts: map[string]int{"2607.00001": 20}},
		nil,
		Options{},
	)

	require.NoError(t, sched.RunBatch(ctx, asOf))

	scores, err := db.ListScores(ctx, store.ScoreListOpts{Date: "2026-08-26"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	sc := scores[0]

	assert.InDelta(t, 1.0, sc.StarVelocityScore, 1e-9)     // 50 -> 100
	assert.InDelta(t, 1.5, sc.CitationVelocityScore, 1e-9) // 8 -> 20 via nearest-earlier
	assert.InDelta(t, 0.5, sc.RecencyScore, 1e-9)          // 45 days old
	assert.Equal(t, "rising", sc.Trend)
}

func TestRunBatch_IdempotentForADay(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	addPaper(t, db, store.Paper{ID: "p1", Repo: "acme/repo", PublishedAt: asOf.AddDate(0, 0, -10)})

	stars := &stubStars{counts: map[string]int{"acme/repo": 100}}
	sched := New(db, stars, &stubCitations{}, nil, Options{})
	require.NoError(t, sched.RunBatch(ctx, asOf))

	// A second run the same day must not rewrite the frozen snapshot even
	// though the provider now reports a different value.
	stars.counts["acme/repo"] = 100000
	require.NoError(t, sched.RunBatch(ctx, asOf))

	snap, err := db.SnapshotOn(ctx, "p1", "2026-08-26")
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.NotNil(t, snap.GithubStars)
	assert.Equal(t, 100, *snap.GithubStars)

	scores, err := db.ListScores(ctx, store.ScoreListOpts{Date: "2026-08-26"})
	require.NoError(t, err)
	assert.Len(t, scores, 1)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 8, 16, 23, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 26, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 10, daysBetween(from, to))

	// Future publication date comes out negative; the engine degrades it.
	assert.Equal(t, -10, daysBetween(to, from))
}
