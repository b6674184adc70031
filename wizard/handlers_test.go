package wizard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hovertable/hovertable/hover"
	"github.com/hovertable/hovertable/journal"
)

// fakeExtractor stands in for a browser session.
type fakeExtractor struct {
	charts  []hover.Chart
	tips    []string
	openErr error
	extErr  error

	openedURL string
}

func (f *fakeExtractor) Open(_ context.Context, url string) ([]hover.Chart, error) {
	f.openedURL = url
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.charts, nil
}

func (f *fakeExtractor) Rescan(context.Context) ([]hover.Chart, error) {
	return f.charts, nil
}

func (f *fakeExtractor) Extract(_ context.Context, _ int, _ hover.Progress) ([]string, error) {
	if f.extErr != nil {
		return nil, f.extErr
	}
	return f.tips, nil
}

func newTestServer(t *testing.T, ext *fakeExtractor) (*Server, *httptest.Server) {
	t.Helper()
	store := journal.NewStore(journal.OpenMemory(t))
	s := NewServer(ext, store, nil, nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

// noRedirect returns a client that stops at the first redirect so tests
// can assert on Location headers.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirect().PostForm(ts.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// WHAT: Submitting a URL walks the flow to ChartsFound and prefixes https://.
// WHY: Operators paste bare hostnames; the original tool forgave that.
func TestSubmitURL(t *testing.T) {
	ext := &fakeExtractor{charts: []hover.Chart{{Title: "Traffic Trend", Width: 800, Height: 300}}}
	s, ts := newTestServer(t, ext)
	f := s.Flows.Create()

	resp := postForm(t, ts, "/flows/"+f.ID+"/url", url.Values{"url": {"example.com/dash"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}

	if ext.openedURL != "https://example.com/dash" {
		t.Errorf("opened url = %q, want https:// prefix", ext.openedURL)
	}
	if f.State != StateChartsFound {
		t.Errorf("state = %s, want %s", f.State, StateChartsFound)
	}
	if len(f.Charts) != 1 {
		t.Errorf("charts = %d, want 1", len(f.Charts))
	}
}

// WHAT: A failed page open resets the flow and keeps a user-facing message.
func TestSubmitURLOpenFails(t *testing.T) {
	ext := &fakeExtractor{openErr: hover.ErrNoCharts}
	s, ts := newTestServer(t, ext)
	f := s.Flows.Create()

	postForm(t, ts, "/flows/"+f.ID+"/url", url.Values{"url": {"example.com"}})

	if f.State != StateAwaitingURL {
		t.Errorf("state = %s, want %s after failure", f.State, StateAwaitingURL)
	}
	if f.LastError == "" {
		t.Error("LastError empty after failed open")
	}
}

// WHAT: Extraction from ChartsFound parses, pivots, and lands on Results
// with a downloadable workbook, and the journal records the run.
func TestExtractHappyPath(t *testing.T) {
	ext := &fakeExtractor{
		charts: []hover.Chart{{Title: "Competitors"}},
		tips: []string{
			"Nov 2025 hm.com 13.5M (12.5M - 15.6M) zara.com 8.1M",
			"Dec 2025 hm.com 14.1M",
		},
	}
	s, ts := newTestServer(t, ext)
	f := s.Flows.Create()

	postForm(t, ts, "/flows/"+f.ID+"/url", url.Values{"url": {"example.com"}})
	resp := postForm(t, ts, "/flows/"+f.ID+"/extract", url.Values{"chart": {"0"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("extract status = %d, want 303", resp.StatusCode)
	}

	if f.State != StateResults {
		t.Fatalf("state = %s, want %s", f.State, StateResults)
	}
	if f.Batch.Empty() {
		t.Error("batch empty after extraction")
	}
	if f.Excel == nil {
		t.Error("no workbook built")
	}

	dl, err := noRedirect().Get(ts.URL + "/flows/" + f.ID + "/download")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Errorf("download status = %d, want 200", dl.StatusCode)
	}

	runs, err := s.Store.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("journal runs = %d, want 1", len(runs))
	}
	if runs[0].Status != journal.StatusFinished {
		t.Errorf("run status = %q, want finished", runs[0].Status)
	}
	if runs[0].Dialect != "entity" {
		t.Errorf("run dialect = %q, want entity", runs[0].Dialect)
	}
	if runs[0].TooltipCount != 2 {
		t.Errorf("tooltip count = %d, want 2", runs[0].TooltipCount)
	}
}

// WHAT: Out-of-order transitions answer 409, not 500.
// WHY: Double-submits and stale tabs hit this constantly.
func TestExtractWithoutChartsIs409(t *testing.T) {
	ext := &fakeExtractor{charts: []hover.Chart{{Title: "Chart"}}}
	s, ts := newTestServer(t, ext)
	f := s.Flows.Create()
	f.Charts = ext.charts // data present but state still AwaitingURL

	resp := postForm(t, ts, "/flows/"+f.ID+"/extract", url.Values{"chart": {"0"}})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

// WHAT: A failed sweep records the failure and returns to ChartsFound.
func TestExtractFailureReturnsToCharts(t *testing.T) {
	ext := &fakeExtractor{
		charts: []hover.Chart{{Title: "Chart"}},
		extErr: errors.New("sweep timed out"),
	}
	s, ts := newTestServer(t, ext)
	f := s.Flows.Create()

	postForm(t, ts, "/flows/"+f.ID+"/url", url.Values{"url": {"example.com"}})
	postForm(t, ts, "/flows/"+f.ID+"/extract", url.Values{"chart": {"0"}})

	if f.State != StateChartsFound {
		t.Errorf("state = %s, want %s", f.State, StateChartsFound)
	}

	runs, _ := s.Store.ListRuns(context.Background(), 10)
	if len(runs) != 1 || runs[0].Status != journal.StatusFailed {
		t.Errorf("journal should hold one failed run, got %+v", runs)
	}
}

// WHAT: The results page strips markup from raw tooltips before display.
// WHY: Tooltip text comes from arbitrary third-party DOMs.
func TestResultsPageSanitizesRawTips(t *testing.T) {
	ext := &fakeExtractor{
		charts: []hover.Chart{{Title: "Chart"}},
		tips:   []string{"Nov 2025 hm.com 13.5M <script>alert(1)</script>"},
	}
	s, ts := newTestServer(t, ext)
	f := s.Flows.Create()

	postForm(t, ts, "/flows/"+f.ID+"/url", url.Values{"url": {"example.com"}})
	postForm(t, ts, "/flows/"+f.ID+"/extract", url.Values{"chart": {"0"}})

	resp, err := http.Get(ts.URL + "/flows/" + f.ID)
	if err != nil {
		t.Fatalf("get results page: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := string(data)

	if strings.Contains(body, "<script>alert") {
		t.Error("script tag survived into the page")
	}
	if !strings.Contains(body, "hm.com") {
		t.Error("tooltip content missing from the page")
	}
}

// WHAT: Unknown flow IDs are 404s on every route.
func TestUnknownFlow404(t *testing.T) {
	_, ts := newTestServer(t, &fakeExtractor{})

	resp, err := http.Get(ts.URL + "/flows/flow_missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
