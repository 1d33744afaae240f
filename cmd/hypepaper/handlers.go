package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hypepaper/hypepaper/internal/config"
	"github.com/hypepaper/hypepaper/internal/scheduler"
	"github.com/hypepaper/hypepaper/internal/store"
	"github.com/hypepaper/hypepaper/pkg/alert"
	"github.com/hypepaper/hypepaper/pkg/hype"
	"github.com/hypepaper/hypepaper/pkg/metrics"
	"github.com/hypepaper/hypepaper/pkg/paper"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func buildScheduler(cfg *config.Config, db store.Store) *scheduler.Scheduler {
	formula := hype.FormulaVersion(cfg.Scoring.Formula)
	if !formula.Valid() {
		fmt.Fprintf(os.Stderr, "unknown formula %q, using %s\n", cfg.Scoring.Formula, hype.FormulaV1Recency)
		formula = hype.FormulaV1Recency
	}

	return scheduler.New(db,
		metrics.NewGitHub(cfg.GitHub.Token),
		metrics.NewSemanticScholar(cfg.Citations.BaseURL, cfg.Citations.APIKey),
		buildAlertManager(cfg),
		scheduler.Options{
			Formula:       formula,
			Comparison:    cfg.Scoring.Comparison,
			Concurrency:   cfg.Scoring.Concurrency,
			FetchTimeout:  cfg.Scoring.ParseFetchTimeout(),
			CronSpec:      cfg.Schedule.Daily,
			AlertMinScore: cfg.Alerts.MinScore,
		})
}

func runAdd(arxivID, repo, topic, title, url, published string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	p := store.Paper{Repo: repo, Topic: topic, Title: title, URL: url}

	switch {
	case arxivID != "":
		id := paper.NormalizeID(arxivID)
		meta, err := paper.NewArxivResolver("").Resolve(ctx, id)
		if err != nil {
			return fmt.Errorf("resolve arXiv %s: %w", id, err)
		}
		p.ID = "arxiv:" + id
		p.ArxivID = id
		p.Title = meta.Title
		p.Authors = meta.Authors
		p.PublishedAt = meta.Published
		if p.URL == "" {
			p.URL = meta.URL
		}
	case repo != "":
		if title == "" || published == "" {
			return errors.New("--title and --published are required when adding by --repo")
		}
		pub, err := time.Parse("2006-01-02", published)
		if err != nil {
			return fmt.Errorf("parse --published: %w", err)
		}
		p.ID = "github:" + repo
		p.PublishedAt = pub
		if p.URL == "" {
			p.URL = "https://github.com/" + repo
		}
	default:
		return errors.New("either --arxiv or --repo is required")
	}

	if err := db.CreatePaper(ctx, &p); err != nil {
		return fmt.Errorf("create paper: %w", err)
	}

	fmt.Printf("tracking %s: %s\n", p.ID, p.Title)
	return nil
}

func runVote(paperID string, down bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	delta := 1
	if down {
		delta = -1
	}
	if err := db.AdjustVotes(ctx, paperID, delta); err != nil {
		return err
	}

	p, err := db.GetPaper(ctx, paperID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d votes\n", p.ID, p.VoteCount)
	return nil
}

func runScore(date string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	asOf := time.Now().UTC()
	if date != "" {
		asOf, err = time.Parse("2006-01-02", date)
		if err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
	}

	return buildScheduler(cfg, db).RunBatch(context.Background(), asOf)
}

func runTop(jsonOutput bool, date string, minScore float64, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if date == "" {
		date = store.DateOf(time.Now())
	}

	ranked, err := db.ListScores(context.Background(), store.ScoreListOpts{
		Date:     date,
		MinScore: minScore,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("list scores: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	if len(ranked) == 0 {
		fmt.Printf("no scores for %s (try scoring first: hypepaper score)\n", date)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSTAR GROWTH\tCITE GROWTH\tTREND\tTOPIC\tTITLE")
	for _, r := range ranked {
		topic := r.Topic
		if topic == "" {
			topic = "-"
		}
		fmt.Fprintf(w, "%.1f\t%+.0f%%\t%+.0f%%\t%s\t%s\t%s\n",
			r.TotalScore, r.StarVelocityScore*100, r.CitationVelocityScore*100,
			r.Trend, topic, truncate(r.Title, 70))
	}
	return w.Flush()
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := buildScheduler(cfg, db)
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Fprintln(os.Stderr, "shutting down")
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
