// CLAUDE:SUMMARY Extraction session orchestrator: browser lifecycle, page open, chart discovery, hover sweep.
package hover

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/hovertable/hovertable/hover/internal/browser"
	"github.com/hovertable/hovertable/hover/internal/config"
	"github.com/hovertable/hovertable/hover/internal/probe"
	"github.com/hovertable/hovertable/hover/internal/sniff"
)

// Progress reports detailed-sweep advancement. Re-exported so callers
// don't import internal packages.
type Progress = probe.Progress

// Session holds one browser-driven extraction session: a single page
// open at a time, with its discovered charts. Not safe for concurrent
// use; a session models one operator working one page.
type Session struct {
	cfg *config.Config
	log *slog.Logger

	mgr    *browser.Manager
	page   *rod.Page
	url    string
	charts []Chart
}

// NewSession creates a session from configuration. The browser is
// launched lazily on the first Open.
func NewSession(cfg *config.Config, log *slog.Logger) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{cfg: cfg, log: log}
}

// Open navigates to url, waits for it to settle, and discovers its
// charts. Any previously open page is closed first. Returns the charts
// found; ErrNoCharts if the page has none.
func (s *Session) Open(ctx context.Context, url string) ([]Chart, error) {
	// Static pre-check first. It cannot replace the browser for hover
	// work, but it spots dead URLs and SPA shells before Chrome spins
	// up, and its findings are worth a log line either way.
	if rep, err := sniff.Fetch(ctx, url); err != nil {
		s.log.Warn("static pre-check failed, continuing with browser", "url", url, "error", err)
	} else {
		s.log.Info("static pre-check", "url", url,
			"static_charts", rep.StaticCharts, "spa_shell", rep.SPAShell)
	}

	if err := s.ensureBrowser(ctx); err != nil {
		return nil, err
	}
	s.closePage()

	page, err := s.mgr.OpenTab(ctx, url, s.cfg.Browser.PageTimeout)
	if err != nil {
		return nil, err
	}
	s.page = page
	s.url = url

	return s.Rescan(ctx)
}

// Rescan re-discovers charts on the currently open page. Useful after
// the operator has interacted with the page (changed a date range,
// switched a tab) outside this tool.
func (s *Session) Rescan(ctx context.Context) ([]Chart, error) {
	if s.page == nil {
		return nil, ErrNotOpen
	}

	charts, err := DiscoverCharts(ctx, s.page)
	if err != nil {
		return nil, err
	}
	s.charts = charts

	if len(charts) == 0 {
		return nil, ErrNoCharts
	}
	s.log.Info("charts discovered", "url", s.url, "count", len(charts))
	return charts, nil
}

// Charts returns the charts found by the last Open or Rescan.
func (s *Session) Charts() []Chart { return s.charts }

// URL returns the currently open page URL, empty if none.
func (s *Session) URL() string { return s.url }

// Extract hovers across the chart at index i and returns the raw
// tooltip texts in first-appearance order. progress may be nil.
func (s *Session) Extract(ctx context.Context, i int, progress Progress) ([]string, error) {
	if s.page == nil {
		return nil, ErrNotOpen
	}
	if i < 0 || i >= len(s.charts) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBadChartIndex, i, len(s.charts))
	}
	chart := s.charts[i]

	el, err := LocateChart(ctx, s.page, chart)
	if err != nil {
		return nil, err
	}

	s.log.Info("sweep starting", "chart", chart.Title, "size",
		fmt.Sprintf("%dx%d", chart.Width, chart.Height))

	tips, err := probe.Sweep(ctx, s.page, el, probe.Options{
		HoverDelay:  s.cfg.Probe.HoverDelay,
		SettleDelay: s.cfg.Probe.SettleDelay,
		CoarseOnly:  s.cfg.Probe.CoarseOnly,
		MinTextLen:  s.cfg.Probe.MinTextLen,
		MaxTextLen:  s.cfg.Probe.MaxTextLen,
	}, progress)
	if err != nil {
		return tips, fmt.Errorf("hover: sweep %q: %w", chart.Title, err)
	}

	s.log.Info("sweep finished", "chart", chart.Title, "tooltips", len(tips))
	return tips, nil
}

// Close shuts down the page and the browser.
func (s *Session) Close() error {
	s.closePage()
	if s.mgr != nil {
		err := s.mgr.Close()
		s.mgr = nil
		return err
	}
	return nil
}

func (s *Session) ensureBrowser(ctx context.Context) error {
	if s.mgr != nil {
		return nil
	}

	level := browser.LevelHeadless
	if s.cfg.Browser.Stealth == "headful" {
		level = browser.LevelHeadful
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        s.cfg.Browser.Remote,
		Stealth:          level,
		XvfbDisplay:      s.cfg.Browser.XvfbDisplay,
		ResourceBlocking: s.cfg.Browser.ResourceBlocking,
		Logger:           s.log,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return err
	}
	s.mgr = mgr
	return nil
}

func (s *Session) closePage() {
	if s.page != nil {
		s.page.Close()
		s.page = nil
		s.url = ""
		s.charts = nil
	}
}
