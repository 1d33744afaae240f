package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Paper is a tracked research paper.
type Paper struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Authors     string    `db:"authors" json:"authors"`
	ArxivID     string    `db:"arxiv_id" json:"arxiv_id"`
	Repo        string    `db:"repo" json:"repo"` // "owner/name"; empty means no linked repository
	Topic       string    `db:"topic" json:"topic"`
	URL         string    `db:"url" json:"url"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	VoteCount   int       `db:"vote_count" json:"vote_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Snapshot is one day's metric reading for a paper. Rows are append-only:
// a (paper, date) pair is written once and never rewritten. Nil stars mean
// the paper has no linked repository; nil citations mean the citation
// source has not indexed it yet.
type Snapshot struct {
	ID            int64     `db:"id"`
	PaperID       string    `db:"paper_id"`
	SnapshotDate  string    `db:"snapshot_date"` // YYYY-MM-DD, UTC
	GithubStars   *int      `db:"github_stars"`
	CitationCount *int      `db:"citation_count"`
	VoteCount     int       `db:"vote_count"`
	CreatedAt     time.Time `db:"created_at"`
}

// Score is a persisted scoring result for one paper on one date under one
// formula version. The component columns mirror the engine breakdown so a
// stored total stays auditable.
type Score struct {
	ID                    int64   `db:"id" json:"id"`
	PaperID               string  `db:"paper_id" json:"paper_id"`
	ScoreDate             string  `db:"score_date" json:"score_date"`
	Formula               string  `db:"formula" json:"formula"`
	TotalScore            float64 `db:"total_score" json:"total_score"`
	StarVelocityScore     float64 `db:"star_velocity_score" json:"star_velocity_score"`
	CitationVelocityScore float64 `db:"citation_velocity_score" json:"citation_velocity_score"`
	AbsoluteMetricsScore  float64 `db:"absolute_metrics_score" json:"absolute_metrics_score"`
	RecencyScore          float64 `db:"recency_score" json:"recency_score"`
	VoteComponent         float64 `db:"vote_component" json:"vote_component"`
	Trend                 string  `db:"trend" json:"trend"`
	Alerted               bool    `db:"alerted" json:"alerted"`
}

// RankedPaper joins a score with the paper fields a listing needs.
type RankedPaper struct {
	Score
	Title string `db:"title" json:"title"`
	Topic string `db:"topic" json:"topic"`
	URL   string `db:"url" json:"url"`
}

// ScoreListOpts controls score listing.
type ScoreListOpts struct {
	Date      string // YYYY-MM-DD, required
	MinScore  float64
	Trend     string
	Unalerted bool
	Limit     int
}

// Store is the persistence interface.
type Store interface {
	CreatePaper(ctx context.Context, p *Paper) error
	GetPaper(ctx context.Context, id string) (*Paper, error)
	ListPapers(ctx context.Context) ([]Paper, error)
	AdjustVotes(ctx context.Context, id string, delta int) error

	AddSnapshot(ctx context.Context, s *Snapshot) error
	SnapshotOn(ctx context.Context, paperID, date string) (*Snapshot, error)
	SnapshotOnOrBefore(ctx context.Context, paperID, date string) (*Snapshot, error)
	MaxStarsOn(ctx context.Context, date, topic string) (int, error)

	SaveScore(ctx context.Context, s *Score) error
	ListScores(ctx context.Context, opts ScoreListOpts) ([]RankedPaper, error)
	MarkAlerted(ctx context.Context, scoreID int64) error

	Close() error
}

// DateOf formats a time as the UTC calendar date snapshots are keyed by.
func DateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreatePaper(ctx context.Context, p *Paper) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO papers (id, title, authors, arxiv_id, repo, topic, url, published_at, vote_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Authors, p.ArxivID, p.Repo, p.Topic, p.URL,
		p.PublishedAt, p.VoteCount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create paper %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetPaper(ctx context.Context, id string) (*Paper, error) {
	var p Paper
	err := s.db.GetContext(ctx, &p, "SELECT * FROM papers WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get paper %s: %w", id, err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListPapers(ctx context.Context) ([]Paper, error) {
	var papers []Paper
	if err := s.db.SelectContext(ctx, &papers, "SELECT * FROM papers ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return papers, nil
}

func (s *SQLiteStore) AdjustVotes(ctx context.Context, id string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE papers SET vote_count = vote_count + ? WHERE id = ?", delta, id)
	if err != nil {
		return fmt.Errorf("adjust votes %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("adjust votes %s: paper not found", id)
	}
	return nil
}

// AddSnapshot appends a daily snapshot. Writing a (paper, date) pair that
// already exists is a no-op: past dates are immutable.
func (s *SQLiteStore) AddSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metric_snapshots (paper_id, snapshot_date, github_stars, citation_count, vote_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(paper_id, snapshot_date) DO NOTHING
	`, snap.PaperID, snap.SnapshotDate, snap.GithubStars, snap.CitationCount,
		snap.VoteCount, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("add snapshot %s@%s: %w", snap.PaperID, snap.SnapshotDate, err)
	}
	return nil
}

// SnapshotOn returns the snapshot for an exact date, or nil when none
// exists. Absence is an expected state, not an error.
func (s *SQLiteStore) SnapshotOn(ctx context.Context, paperID, date string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.GetContext(ctx, &snap,
		"SELECT * FROM metric_snapshots WHERE paper_id = ? AND snapshot_date = ?",
		paperID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %s@%s: %w", paperID, date, err)
	}
	return &snap, nil
}

// SnapshotOnOrBefore returns the newest snapshot dated at or before the
// given date, or nil when the paper has no history that old. This backs
// the "nearest available earlier snapshot" read of the lookback windows.
func (s *SQLiteStore) SnapshotOnOrBefore(ctx context.Context, paperID, date string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.GetContext(ctx, &snap, `
		SELECT * FROM metric_snapshots
		WHERE paper_id = ? AND snapshot_date <= ?
		ORDER BY snapshot_date DESC LIMIT 1
	`, paperID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot <= %s@%s: %w", paperID, date, err)
	}
	return &snap, nil
}

// MaxStarsOn returns the comparison-set maximum: the highest star count in
// any snapshot on the given date, restricted to one topic when topic is
// non-empty. Papers without repositories contribute nothing; an empty set
// yields 0.
func (s *SQLiteStore) MaxStarsOn(ctx context.Context, date, topic string) (int, error) {
	query := `
		SELECT COALESCE(MAX(ms.github_stars), 0)
		FROM metric_snapshots ms
		JOIN papers p ON p.id = ms.paper_id
		WHERE ms.snapshot_date = ?`
	args := []any{date}
	if topic != "" {
		query += " AND p.topic = ?"
		args = append(args, topic)
	}

	var max int
	if err := s.db.GetContext(ctx, &max, query, args...); err != nil {
		return 0, fmt.Errorf("max stars on %s: %w", date, err)
	}
	return max, nil
}

// SaveScore upserts a scoring result. Re-running a batch for the same day
// and formula overwrites that day's row, keeping the batch idempotent.
func (s *SQLiteStore) SaveScore(ctx context.Context, sc *Score) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hype_scores (paper_id, score_date, formula, total_score,
			star_velocity_score, citation_velocity_score, absolute_metrics_score,
			recency_score, vote_component, trend, alerted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(paper_id, score_date, formula) DO UPDATE SET
			total_score = excluded.total_score,
			star_velocity_score = excluded.star_velocity_score,
			citation_velocity_score = excluded.citation_velocity_score,
			absolute_metrics_score = excluded.absolute_metrics_score,
			recency_score = excluded.recency_score,
			vote_component = excluded.vote_component,
			trend = excluded.trend
	`, sc.PaperID, sc.ScoreDate, sc.Formula, sc.TotalScore,
		sc.StarVelocityScore, sc.CitationVelocityScore, sc.AbsoluteMetricsScore,
		sc.RecencyScore, sc.VoteComponent, sc.Trend, sc.Alerted)
	if err != nil {
		return fmt.Errorf("save score %s@%s: %w", sc.PaperID, sc.ScoreDate, err)
	}
	return nil
}

func (s *SQLiteStore) ListScores(ctx context.Context, opts ScoreListOpts) ([]RankedPaper, error) {
	query := `
		SELECT hs.*, p.title, p.topic, p.url
		FROM hype_scores hs
		JOIN papers p ON p.id = hs.paper_id
		WHERE hs.score_date = ?`
	args := []any{opts.Date}

	if opts.MinScore > 0 {
		query += " AND hs.total_score >= ?"
		args = append(args, opts.MinScore)
	}
	if opts.Trend != "" {
		query += " AND hs.trend = ?"
		args = append(args, opts.Trend)
	}
	if opts.Unalerted {
		query += " AND hs.alerted = 0"
	}

	query += " ORDER BY hs.total_score DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var rows []RankedPaper
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) MarkAlerted(ctx context.Context, scoreID int64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE hype_scores SET alerted = 1 WHERE id = ?", scoreID)
	if err != nil {
		return fmt.Errorf("mark alerted %d: %w", scoreID, err)
	}
	return nil
}
