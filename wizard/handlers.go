package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hovertable/hovertable/hover"
	"github.com/hovertable/hovertable/journal"
	"github.com/hovertable/hovertable/pivot"
	"github.com/hovertable/hovertable/tipparse"
)

// Extractor is the browser-side surface the wizard needs. hover.Session
// implements it; tests substitute a fake.
type Extractor interface {
	Open(ctx context.Context, url string) ([]hover.Chart, error)
	Rescan(ctx context.Context) ([]hover.Chart, error)
	Extract(ctx context.Context, i int, progress hover.Progress) ([]string, error)
}

// Server hosts the wizard over HTTP. One Extractor means one browser:
// the wizard serializes extractions, which is fine for its single-
// operator use case.
type Server struct {
	Flows   *Flows
	Ext     Extractor
	Store   *journal.Store // optional; nil disables the run journal
	Parser  *tipparse.Parser
	Log     *slog.Logger
	policy  *bluemonday.Policy
	extBusy chan struct{}
}

// NewServer wires a wizard server.
func NewServer(ext Extractor, store *journal.Store, parser *tipparse.Parser, log *slog.Logger) *Server {
	if parser == nil {
		parser = tipparse.New(tipparse.Options{})
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		Flows:   NewFlows(),
		Ext:     ext,
		Store:   store,
		Parser:  parser,
		Log:     log,
		policy:  bluemonday.StrictPolicy(),
		extBusy: make(chan struct{}, 1),
	}
}

// Router builds the chi router for the wizard.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		f := s.Flows.Create()
		http.Redirect(w, r, "/flows/"+f.ID, http.StatusSeeOther)
	})

	r.Route("/flows/{id}", func(r chi.Router) {
		r.Get("/", s.withFlow(s.showFlow))
		r.Post("/url", s.withFlow(s.submitURL))
		r.Post("/extract", s.withFlow(s.runExtract))
		r.Post("/again", s.withFlow(s.anotherChart))
		r.Post("/restart", s.withFlow(s.restart))
		r.Get("/download", s.withFlow(s.download))
	})

	return r
}

type flowHandler func(w http.ResponseWriter, r *http.Request, f *Flow)

func (s *Server) withFlow(h flowHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.Flows.Get(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "flow not found", http.StatusNotFound)
			return
		}
		h(w, r, f)
	}
}

func (s *Server) showFlow(w http.ResponseWriter, _ *http.Request, f *Flow) {
	s.render(w, f)
}

// submitURL drives AwaitingURL through detection to ChartsFound in one
// request; the intermediate states exist so a failure lands the flow
// somewhere honest.
func (s *Server) submitURL(w http.ResponseWriter, r *http.Request, f *Flow) {
	url := strings.TrimSpace(r.FormValue("url"))
	if url == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	if err := f.Step(StatePageLoaded); err != nil {
		s.conflict(w, err)
		return
	}
	f.URL = url
	f.LastError = ""

	if err := f.Step(StateDetecting); err != nil {
		s.conflict(w, err)
		return
	}

	charts, err := s.Ext.Open(r.Context(), url)
	if err != nil {
		s.Log.Warn("wizard: open failed", "flow", f.ID, "url", url, "error", err)
		f.LastError = openFailureMessage(err)
		f.Reset()
		http.Redirect(w, r, "/flows/"+f.ID, http.StatusSeeOther)
		return
	}

	f.Charts = charts
	if err := f.Step(StateChartsFound); err != nil {
		s.conflict(w, err)
		return
	}
	http.Redirect(w, r, "/flows/"+f.ID, http.StatusSeeOther)
}

func (s *Server) runExtract(w http.ResponseWriter, r *http.Request, f *Flow) {
	idx, err := strconv.Atoi(r.FormValue("chart"))
	if err != nil || idx < 0 || idx >= len(f.Charts) {
		http.Error(w, "invalid chart selection", http.StatusBadRequest)
		return
	}

	if err := f.Step(StateExtracting); err != nil {
		s.conflict(w, err)
		return
	}
	f.Selected = idx

	// One browser, one sweep at a time.
	s.extBusy <- struct{}{}
	defer func() { <-s.extBusy }()

	var run *journal.Run
	if s.Store != nil {
		if run, err = s.Store.CreateRun(r.Context(), f.URL, f.Charts[idx].Title); err != nil {
			s.Log.Warn("wizard: create run failed", "error", err)
		}
	}

	tips, err := s.Ext.Extract(r.Context(), idx, nil)
	if err != nil {
		s.Log.Warn("wizard: extract failed", "flow", f.ID, "error", err)
		if s.Store != nil && run != nil {
			s.Store.FailRun(r.Context(), run.ID, err)
		}
		f.LastError = "Extraction failed: " + err.Error()
		f.Step(StateChartsFound)
		http.Redirect(w, r, "/flows/"+f.ID, http.StatusSeeOther)
		return
	}

	f.clearResults()
	f.RawTips = tips
	f.Batch = s.Parser.ParseBatch(tips)
	f.Table = pivot.Build(f.Batch)

	if xlsx, xerr := pivot.Excel(f.Table, tips); xerr != nil {
		s.Log.Warn("wizard: excel build failed", "error", xerr)
	} else {
		f.Excel = xlsx
	}

	if s.Store != nil && run != nil {
		if err := s.Store.SaveTooltips(r.Context(), run.ID, tips); err != nil {
			s.Log.Warn("wizard: save tooltips failed", "error", err)
		}
		if err := s.Store.FinishRun(r.Context(), run.ID, f.Batch.Dialect.String(), len(f.Batch.Records)); err != nil {
			s.Log.Warn("wizard: finish run failed", "error", err)
		}
	}

	if err := f.Step(StateResults); err != nil {
		s.conflict(w, err)
		return
	}
	http.Redirect(w, r, "/flows/"+f.ID, http.StatusSeeOther)
}

func (s *Server) anotherChart(w http.ResponseWriter, r *http.Request, f *Flow) {
	if err := f.Step(StateChartsFound); err != nil {
		s.conflict(w, err)
		return
	}

	// The page may have re-rendered since; refresh the chart list.
	if charts, err := s.Ext.Rescan(r.Context()); err == nil {
		f.Charts = charts
	}
	http.Redirect(w, r, "/flows/"+f.ID, http.StatusSeeOther)
}

func (s *Server) restart(w http.ResponseWriter, r *http.Request, f *Flow) {
	f.Reset()
	http.Redirect(w, r, "/flows/"+f.ID, http.StatusSeeOther)
}

func (s *Server) download(w http.ResponseWriter, _ *http.Request, f *Flow) {
	if f.State != StateResults || f.Excel == nil {
		http.Error(w, "no workbook available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="chart_data.xlsx"`)
	w.Write(f.Excel)
}

func (s *Server) conflict(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBadTransition) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func openFailureMessage(err error) string {
	if errors.Is(err, hover.ErrNoCharts) {
		return "The page loaded but no charts were found on it."
	}
	return "Could not open the page: " + err.Error()
}
