// Package journal persists extraction runs and their raw tooltips in
// SQLite. Raw tooltip text is the ground truth of an extraction; the
// parsed table can always be rebuilt from it when the parser improves,
// but a lost capture means re-driving the browser.
package journal

import (
	"database/sql"
	"errors"

	"github.com/hovertable/hovertable/idgen"
)

var (
	// ErrRunNotFound means no run exists with the given ID.
	ErrRunNotFound = errors.New("journal: run not found")
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Run records one chart extraction: which URL, which chart, when, and
// how much came out of it.
type Run struct {
	ID           string
	URL          string
	ChartTitle   string
	Dialect      string // entity | metric | "" while running
	Status       string
	Error        string
	TooltipCount int
	RecordCount  int
	StartedAt    int64 // unix millis
	FinishedAt   int64 // unix millis, 0 while running
}

// Tooltip is one raw captured string, kept in arrival order via Seq.
type Tooltip struct {
	ID         string
	RunID      string
	Seq        int
	Text       string
	CapturedAt int64
}

// Store wraps the journal database.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, newID: idgen.UUIDv7()}
}
