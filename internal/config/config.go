package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	GitHub    GitHubConfig    `yaml:"github"`
	Citations CitationsConfig `yaml:"citations"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GitHubConfig configures the star metric provider.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// CitationsConfig configures the citation metric provider.
type CitationsConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ScheduleConfig configures the daily scoring batch.
type ScheduleConfig struct {
	// Daily is a cron expression for when the batch runs, UTC.
	Daily string `yaml:"daily"`
}

// ScoringConfig configures the scoring batch.
type ScoringConfig struct {
	// Formula picks the score formula version: "v1-recency" or "v2-votes".
	Formula string `yaml:"formula"`
	// Comparison picks the normalization comparison set: "topic" or "global".
	Comparison string `yaml:"comparison"`
	// Concurrency bounds how many papers are processed in parallel.
	Concurrency int `yaml:"concurrency"`
	// FetchTimeout bounds each paper's external metric fetches, e.g. "30s".
	FetchTimeout string `yaml:"fetch_timeout"`
}

// ParseFetchTimeout returns the per-paper fetch timeout as a duration.
func (s ScoringConfig) ParseFetchTimeout() time.Duration {
	d, err := time.ParseDuration(s.FetchTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// AlertsConfig configures alert destinations for rising papers.
type AlertsConfig struct {
	MinScore float64       `yaml:"min_score"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Webhook  WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./hypepaper.db"},
		Schedule: ScheduleConfig{Daily: "0 6 * * *"},
		Scoring: ScoringConfig{
			Formula:      "v1-recency",
			Comparison:   "topic",
			Concurrency:  8,
			FetchTimeout: "30s",
		},
		Alerts: AlertsConfig{MinScore: 60},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HYPEPAPER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("SEMANTIC_SCHOLAR_API_KEY"); v != "" {
		cfg.Citations.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
