package journal

import "database/sql"

// Schema is the complete journal schema.
const Schema = `
-- One row per chart extraction attempt
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    url           TEXT NOT NULL,
    chart_title   TEXT NOT NULL DEFAULT '',
    dialect       TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'running',
    error         TEXT NOT NULL DEFAULT '',
    tooltip_count INTEGER NOT NULL DEFAULT 0,
    record_count  INTEGER NOT NULL DEFAULT 0,
    started_at    INTEGER NOT NULL,
    finished_at   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(url);

-- Raw captured tooltip text, in arrival order
CREATE TABLE IF NOT EXISTS tooltips (
    id          TEXT PRIMARY KEY,
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    text        TEXT NOT NULL,
    captured_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tooltips_run ON tooltips(run_id, seq);
`

// ApplySchema creates the journal tables if they don't exist.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
