package store

const schema = `
CREATE TABLE IF NOT EXISTS papers (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    authors      TEXT NOT NULL DEFAULT '',
    arxiv_id     TEXT NOT NULL DEFAULT '',
    repo         TEXT NOT NULL DEFAULT '',
    topic        TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    published_at DATETIME NOT NULL,
    vote_count   INTEGER NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_papers_topic ON papers(topic);

CREATE TABLE IF NOT EXISTS metric_snapshots (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    paper_id       TEXT NOT NULL REFERENCES papers(id),
    snapshot_date  TEXT NOT NULL,
    github_stars   INTEGER,
    citation_count INTEGER,
    vote_count     INTEGER NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL,
    UNIQUE(paper_id, snapshot_date)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_paper_date ON metric_snapshots(paper_id, snapshot_date);
CREATE INDEX IF NOT EXISTS idx_snapshots_date ON metric_snapshots(snapshot_date);

CREATE TABLE IF NOT EXISTS hype_scores (
    id                       INTEGER PRIMARY KEY AUTOINCREMENT,
    paper_id                 TEXT NOT NULL REFERENCES papers(id),
    score_date               TEXT NOT NULL,
    formula                  TEXT NOT NULL,
    total_score              REAL NOT NULL DEFAULT 0,
    star_velocity_score      REAL NOT NULL DEFAULT 0,
    citation_velocity_score  REAL NOT NULL DEFAULT 0,
    absolute_metrics_score   REAL NOT NULL DEFAULT 0,
    recency_score            REAL NOT NULL DEFAULT 0,
    vote_component           REAL NOT NULL DEFAULT 0,
    trend                    TEXT NOT NULL DEFAULT 'stable',
    alerted                  BOOLEAN NOT NULL DEFAULT 0,
    UNIQUE(paper_id, score_date, formula)
);

CREATE INDEX IF NOT EXISTS idx_scores_date ON hype_scores(score_date);
CREATE INDEX IF NOT EXISTS idx_scores_total ON hype_scores(total_score);
`
