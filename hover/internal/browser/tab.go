package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// OpenTab opens a stealth page, navigates to url, and waits for the
// load event plus a settle delay so client-rendered charts have a
// chance to mount. The caller owns the returned page and must Close it.
func (m *Manager) OpenTab(ctx context.Context, url string, timeout time.Duration) (*rod.Page, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: open stealth page: %w", err)
	}

	page = page.Context(ctx).Timeout(timeout)

	if len(m.cfg.ResourceBlocking) > 0 {
		m.applyResourceBlocking(page)
	}

	if err := page.Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: wait load %s: %w", url, err)
	}

	// Charts on analytics dashboards render after the load event.
	select {
	case <-ctx.Done():
		page.Close()
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
	}

	return page, nil
}

// applyResourceBlocking installs a request hijacker that fails requests
// for the configured resource types. Used to cut bandwidth on slow
// links; never blocks stylesheets (see Config.ResourceBlocking).
func (m *Manager) applyResourceBlocking(page *rod.Page) {
	blocked := make(map[proto.NetworkResourceType]bool, len(m.cfg.ResourceBlocking))
	for _, t := range m.cfg.ResourceBlocking {
		switch t {
		case "image":
			blocked[proto.NetworkResourceTypeImage] = true
		case "font":
			blocked[proto.NetworkResourceTypeFont] = true
		case "media":
			blocked[proto.NetworkResourceTypeMedia] = true
		}
	}
	if len(blocked) == 0 {
		return
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(hctx *rod.Hijack) {
		if blocked[hctx.Request.Type()] {
			hctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		hctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}
