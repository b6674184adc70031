package journal

import (
	"context"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func TestApplySchema(t *testing.T) {
	// WHAT: Verify schema creates all tables without error.
	// WHY: Schema is the foundation — if it fails, nothing works.
	db := OpenMemory(t)
	for _, table := range []string{"runs", "tooltips"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestCreateAndGetRun(t *testing.T) {
	// WHAT: Create a run and retrieve it by ID.
	// WHY: Every extraction starts here; the generated ID must round-trip.
	s := NewStore(OpenMemory(t))
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "https://example.com/dashboard", "Traffic Trend")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if run.ID == "" {
		t.Fatal("run ID is empty")
	}
	if run.Status != StatusRunning {
		t.Errorf("status: got %q, want %q", run.Status, StatusRunning)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.URL != "https://example.com/dashboard" {
		t.Errorf("url: got %q", got.URL)
	}
	if got.ChartTitle != "Traffic Trend" {
		t.Errorf("chart title: got %q", got.ChartTitle)
	}
	if got.StartedAt == 0 {
		t.Error("started_at not set")
	}
}

func TestGetRunNotFound(t *testing.T) {
	// WHAT: Unknown run IDs surface the sentinel, not sql.ErrNoRows.
	s := NewStore(OpenMemory(t))
	if _, err := s.GetRun(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestSaveTooltipsOrder(t *testing.T) {
	// WHAT: Tooltips come back in the order they were captured.
	// WHY: Arrival order is the only chronology the raw capture carries;
	// re-parsing depends on it.
	s := NewStore(OpenMemory(t))
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "https://example.com", "Chart")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	texts := []string{
		"Nov 2025 hm.com 13.5M",
		"Dec 2025 hm.com 14.1M",
		"Jan 2026 hm.com 12.9M",
	}
	if err := s.SaveTooltips(ctx, run.ID, texts); err != nil {
		t.Fatalf("save tooltips: %v", err)
	}

	got, err := s.TooltipsForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("tooltips for run: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d tooltips, want 3", len(got))
	}
	for i := range texts {
		if got[i] != texts[i] {
			t.Errorf("tooltip[%d]: got %q, want %q", i, got[i], texts[i])
		}
	}

	updated, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if updated.TooltipCount != 3 {
		t.Errorf("tooltip_count: got %d, want 3", updated.TooltipCount)
	}
}

func TestSaveTooltipsEmpty(t *testing.T) {
	// WHAT: Saving an empty batch is a no-op, not an error.
	s := NewStore(OpenMemory(t))
	run, _ := s.CreateRun(context.Background(), "https://example.com", "Chart")
	if err := s.SaveTooltips(context.Background(), run.ID, nil); err != nil {
		t.Fatalf("save empty batch: %v", err)
	}
}

func TestFinishRun(t *testing.T) {
	// WHAT: FinishRun records dialect, record count, and a finish time.
	s := NewStore(OpenMemory(t))
	ctx := context.Background()

	run, _ := s.CreateRun(ctx, "https://example.com", "Chart")
	if err := s.FinishRun(ctx, run.ID, "entity", 12); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != StatusFinished {
		t.Errorf("status: got %q, want %q", got.Status, StatusFinished)
	}
	if got.Dialect != "entity" {
		t.Errorf("dialect: got %q", got.Dialect)
	}
	if got.RecordCount != 12 {
		t.Errorf("record_count: got %d, want 12", got.RecordCount)
	}
	if got.FinishedAt == 0 {
		t.Error("finished_at not set")
	}
}

func TestFailRun(t *testing.T) {
	// WHAT: FailRun stores the cause and flips status to failed.
	s := NewStore(OpenMemory(t))
	ctx := context.Background()

	run, _ := s.CreateRun(ctx, "https://example.com", "Chart")
	if err := s.FailRun(ctx, run.ID, errors.New("sweep timed out")); err != nil {
		t.Fatalf("fail run: %v", err)
	}

	got, _ := s.GetRun(ctx, run.ID)
	if got.Status != StatusFailed {
		t.Errorf("status: got %q, want %q", got.Status, StatusFailed)
	}
	if got.Error != "sweep timed out" {
		t.Errorf("error: got %q", got.Error)
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	// WHAT: Lifecycle updates on a missing run report ErrRunNotFound.
	s := NewStore(OpenMemory(t))
	if err := s.FinishRun(context.Background(), "nope", "metric", 0); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	// WHAT: ListRuns orders by start time descending and honors the limit.
	s := NewStore(OpenMemory(t))
	ctx := context.Background()

	// Same-millisecond starts are possible here; force distinct times.
	for i, title := range []string{"first", "second", "third"} {
		run, err := s.CreateRun(ctx, "https://example.com", title)
		if err != nil {
			t.Fatalf("create run: %v", err)
		}
		if _, err := s.DB.ExecContext(ctx,
			`UPDATE runs SET started_at = ? WHERE id = ?`, int64(1000+i), run.ID); err != nil {
			t.Fatalf("set started_at: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ChartTitle != "third" || runs[1].ChartTitle != "second" {
		t.Errorf("order: got %q, %q; want third, second", runs[0].ChartTitle, runs[1].ChartTitle)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	// WHAT: Deleting a run removes its tooltips via the foreign key.
	// WHY: Orphaned tooltip rows would resurface in re-parse flows.
	s := NewStore(OpenMemory(t))
	ctx := context.Background()

	run, _ := s.CreateRun(ctx, "https://example.com", "Chart")
	if err := s.SaveTooltips(ctx, run.ID, []string{"Nov 2025 hm.com 13.5M"}); err != nil {
		t.Fatalf("save tooltips: %v", err)
	}

	if err := s.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("delete run: %v", err)
	}

	var n int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM tooltips`).Scan(&n); err != nil {
		t.Fatalf("count tooltips: %v", err)
	}
	if n != 0 {
		t.Errorf("tooltips remaining: %d, want 0", n)
	}
}
