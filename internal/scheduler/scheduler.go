// Package scheduler runs the daily scoring batch: freeze today's metric
// snapshots, compute the comparison-set maxima once, score every paper, and
// alert on risers. Papers are independent units of work; one paper failing
// never aborts the batch for the others.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hypepaper/hypepaper/internal/retry"
	"github.com/hypepaper/hypepaper/internal/store"
	"github.com/hypepaper/hypepaper/pkg/alert"
	"github.com/hypepaper/hypepaper/pkg/hype"
	"github.com/hypepaper/hypepaper/pkg/metrics"
)

// Options tunes the batch.
type Options struct {
	Formula       hype.FormulaVersion
	Comparison    string // "topic" or "global"
	Concurrency   int
	FetchTimeout  time.Duration
	CronSpec      string // when the daily batch runs, UTC
	AlertMinScore float64
}

// Scheduler owns the daily scoring batch.
type Scheduler struct {
	store     store.Store
	stars     metrics.StarProvider
	citations metrics.CitationProvider
	alertMgr  *alert.Manager
	opts      Options
	nowFunc   func() time.Time
}

// New creates a scheduler. Zero option values get defaults.
func New(s store.Store, stars metrics.StarProvider, citations metrics.CitationProvider, alertMgr *alert.Manager, opts Options) *Scheduler {
	if !opts.Formula.Valid() {
		opts.Formula = hype.FormulaV1Recency
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.CronSpec == "" {
		opts.CronSpec = "0 6 * * *"
	}
	return &Scheduler{
		store:     s,
		stars:     stars,
		citations: citations,
		alertMgr:  alertMgr,
		opts:      opts,
		nowFunc:   func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one batch immediately, then follows the cron schedule.
// Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(s.opts.CronSpec, func() {
		fmt.Fprintln(os.Stderr, "scheduler: scoring batch...")
		if err := s.RunBatch(ctx, s.nowFunc()); err != nil {
			fmt.Fprintf(os.Stderr, "scheduler: batch error: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron spec %q: %w", s.opts.CronSpec, err)
	}

	fmt.Fprintln(os.Stderr, "scheduler: initial scoring batch...")
	if err := s.RunBatch(ctx, s.nowFunc()); err != nil {
		fmt.Fprintf(os.Stderr, "scheduler: batch error: %v\n", err)
	}

	c.Start()
	defer c.Stop()

	fmt.Fprintf(os.Stderr, "scheduler: running (daily batch at %q UTC)\n", s.opts.CronSpec)
	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "scheduler: stopped")
	return ctx.Err()
}

// RunBatch scores every tracked paper as of the given time. The batch runs
// in three phases so that every paper in a comparison group sees the same
// normalization denominator: snapshots first, then the maxima, then scores.
func (s *Scheduler) RunBatch(ctx context.Context, asOf time.Time) error {
	papers, err := s.store.ListPapers(ctx)
	if err != nil {
		return fmt.Errorf("list papers: %w", err)
	}
	if len(papers) == 0 {
		return nil
	}
	today := store.DateOf(asOf)

	// Phase 1: freeze today's snapshots.
	s.forEach(papers, func(p store.Paper) {
		if err := s.ensureSnapshot(ctx, &p, today); err != nil {
			fmt.Fprintf(os.Stderr, "  %s snapshot error: %v\n", p.ID, err)
		}
	})

	// Phase 2: comparison-set maxima, computed once and read-only from here.
	maxima, err := s.comparisonMaxima(ctx, papers, today)
	if err != nil {
		return fmt.Errorf("comparison maxima: %w", err)
	}

	// Phase 3: score and persist.
	var scored atomic.Int64
	s.forEach(papers, func(p store.Paper) {
		if err := s.scorePaper(ctx, &p, asOf, today, maxima[s.groupKey(p)]); err != nil {
			fmt.Fprintf(os.Stderr, "  %s score error: %v\n", p.ID, err)
			return
		}
		scored.Add(1)
	})
	fmt.Fprintf(os.Stderr, "  scored %d/%d papers for %s\n", scored.Load(), len(papers), today)

	s.alertRising(ctx, today)
	return nil
}

// forEach runs fn once per paper with bounded concurrency.
func (s *Scheduler) forEach(papers []store.Paper, fn func(store.Paper)) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.opts.Concurrency)
	for _, p := range papers {
		wg.Add(1)
		go func(p store.Paper) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fn(p)
		}(p)
	}
	wg.Wait()
}

func (s *Scheduler) groupKey(p store.Paper) string {
	if s.opts.Comparison == "global" {
		return ""
	}
	return p.Topic
}

func (s *Scheduler) comparisonMaxima(ctx context.Context, papers []store.Paper, today string) (map[string]int, error) {
	maxima := make(map[string]int)
	for _, p := range papers {
		key := s.groupKey(p)
		if _, ok := maxima[key]; ok {
			continue
		}
		max, err := s.store.MaxStarsOn(ctx, today, key)
		if err != nil {
			return nil, err
		}
		maxima[key] = max
	}
	return maxima, nil
}

// ensureSnapshot appends today's snapshot if it does not exist yet. Each
// metric is fetched independently: a failed or impossible fetch leaves the
// field absent and the snapshot is written anyway, so the engine can still
// score whatever streams are available.
func (s *Scheduler) ensureSnapshot(ctx context.Context, p *store.Paper, today string) error {
	existing, err := s.store.SnapshotOn(ctx, p.ID, today)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	snap := &store.Snapshot{PaperID: p.ID, SnapshotDate: today, VoteCount: p.VoteCount}

	if p.Repo != "" && s.stars != nil {
		if stars, err := s.fetchStars(ctx, p.Repo); err != nil {
			fmt.Fprintf(os.Stderr, "  %s stars fetch error: %v\n", p.ID, err)
		} else {
			snap.GithubStars = &stars
		}
	}
	if p.ArxivID != "" && s.citations != nil {
		if count, indexed, err := s.fetchCitations(ctx, p.ArxivID); err != nil {
			fmt.Fprintf(os.Stderr, "  %s citations fetch error: %v\n", p.ID, err)
		} else if indexed {
			snap.CitationCount = &count
		}
	}

	return s.store.AddSnapshot(ctx, snap)
}

func (s *Scheduler) fetchStars(ctx context.Context, repo string) (int, error) {
	fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	var stars int
	err := retry.Do(fctx, func() error {
		var err error
		stars, err = s.stars.Stars(fctx, repo)
		return err
	}, retry.WithMaxRetries(2), retry.WithInitialDelay(2*time.Second))
	return stars, err
}

func (s *Scheduler) fetchCitations(ctx context.Context, arxivID string) (int, bool, error) {
	fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	var count int
	var indexed bool
	err := retry.Do(fctx, func() error {
		var err error
		count, indexed, err = s.citations.Citations(fctx, arxivID)
		return err
	}, retry.WithMaxRetries(2), retry.WithInitialDelay(2*time.Second))
	return count, indexed, err
}

func (s *Scheduler) scorePaper(ctx context.Context, p *store.Paper, asOf time.Time, today string, maxStars int) error {
	snap, err := s.store.SnapshotOn(ctx, p.ID, today)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no snapshot for %s", today)
	}

	weekAgo, err := s.store.SnapshotOnOrBefore(ctx, p.ID, store.DateOf(asOf.AddDate(0, 0, -7)))
	if err != nil {
		return err
	}
	monthAgo, err := s.store.SnapshotOnOrBefore(ctx, p.ID, store.DateOf(asOf.AddDate(0, 0, -30)))
	if err != nil {
		return err
	}

	res := hype.Score(hype.Inputs{
		Today:            observation(snap),
		WeekAgo:          observation(weekAgo),
		MonthAgo:         observation(monthAgo),
		DaysSincePublish: daysBetween(p.PublishedAt, asOf),
		MaxStars:         maxStars,
	}, s.opts.Formula)

	return s.store.SaveScore(ctx, &store.Score{
		PaperID:               p.ID,
		ScoreDate:             today,
		Formula:               string(res.Formula),
		TotalScore:            res.TotalScore,
		StarVelocityScore:     res.StarVelocityScore,
		CitationVelocityScore: res.CitationVelocityScore,
		AbsoluteMetricsScore:  res.AbsoluteMetricsScore,
		RecencyScore:          res.RecencyScore,
		VoteComponent:         res.VoteComponent,
		Trend:                 string(res.Trend),
	})
}

func (s *Scheduler) alertRising(ctx context.Context, today string) {
	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return
	}

	rows, err := s.store.ListScores(ctx, store.ScoreListOpts{
		Date:      today,
		MinScore:  s.opts.AlertMinScore,
		Trend:     string(hype.TrendRising),
		Unalerted: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "  alert query error: %v\n", err)
		return
	}

	for _, row := range rows {
		n := &alert.Notification{
			PaperID: row.PaperID,
			Title:   row.Title,
			URL:     row.URL,
			Topic:   row.Topic,
			Score:   row.TotalScore,
			Trend:   row.Trend,
		}
		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			fmt.Fprintf(os.Stderr, "  alert error for %s: %v\n", row.PaperID, err)
			continue
		}
		_ = s.store.MarkAlerted(ctx, row.ID)
		fmt.Fprintf(os.Stderr, "  alerted: %s (score %.1f)\n", row.Title, row.TotalScore)
	}
}

func observation(snap *store.Snapshot) hype.Observation {
	if snap == nil {
		return hype.Observation{}
	}
	return hype.Observation{
		Stars:     snap.GithubStars,
		Citations: snap.CitationCount,
		Votes:     snap.VoteCount,
	}
}

// daysBetween counts whole calendar days between two instants in UTC.
func daysBetween(from, to time.Time) int {
	f := from.UTC().Truncate(24 * time.Hour)
	t := to.UTC().Truncate(24 * time.Hour)
	return int(t.Sub(f).Hours() / 24)
}
