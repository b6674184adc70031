// Package sniff performs a cheap static pre-check before Chrome is
// launched. Most analytics dashboards are client-rendered, so the
// pre-check usually just confirms that a full browser session is
// needed — but when charts are server-rendered it reports how many
// were found, and it surfaces obvious SPA shells early.
package sniff

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Report summarizes what the static fetch found.
type Report struct {
	StaticCharts int  // svg/canvas chart containers in the raw HTML
	SPAShell     bool // page is an empty client-side app shell
	NeedsBrowser bool
}

// Fetch retrieves the page over plain HTTP and inspects the raw HTML.
func Fetch(ctx context.Context, url string) (*Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sniff: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sniff: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sniff: fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("sniff: read body: %w", err)
	}

	return Inspect(body), nil
}

// Inspect analyzes raw HTML for chart containers and SPA shells.
func Inspect(raw []byte) *Report {
	r := &Report{}

	doc, err := html.Parse(bytes.NewReader(raw))
	if err == nil {
		r.StaticCharts = countCharts(doc)
	}

	r.SPAShell = isSPAShell(raw)
	// Static charts carry no hover handlers worth probing without a
	// browser; anything interactive needs Chrome regardless.
	r.NeedsBrowser = r.StaticCharts == 0 || r.SPAShell
	return r
}

// chartClassHints are substrings of class names used by the charting
// libraries we see in the wild.
var chartClassHints = []string{
	"chart", "highcharts", "recharts", "echarts", "apexcharts", "graph",
}

// countCharts walks the DOM counting svg/canvas elements and containers
// whose class names look chart-like.
func countCharts(doc *html.Node) int {
	count := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Svg, atom.Canvas:
				count++
				return // don't double-count nested markers
			}
			if class := attrVal(n, "class"); class != "" {
				lower := strings.ToLower(class)
				for _, hint := range chartClassHints {
					if strings.Contains(lower, hint) {
						count++
						return
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return count
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isSPAShell returns true if the HTML looks like an empty client-side
// app shell: almost no visible text, or a known root-div marker.
func isSPAShell(raw []byte) bool {
	lower := bytes.ToLower(raw)
	shellMarkers := []string{
		"<div id=\"root\"></div>",
		"<div id=\"app\"></div>",
		"<div id=\"__next\"></div>",
		"<noscript>you need to enable javascript",
		"<noscript>enable javascript",
	}
	for _, m := range shellMarkers {
		if bytes.Contains(lower, []byte(m)) {
			return true
		}
	}

	text, markup := textMarkupRatio(raw)
	total := text + markup
	if total == 0 {
		return true
	}
	return float64(text)/float64(total) < 0.05 && text < 200
}

// textMarkupRatio computes the approximate byte count of visible text
// vs markup, skipping script and style bodies.
func textMarkupRatio(raw []byte) (text, markup int) {
	inTag := false
	inScript := false
	inStyle := false

	s := string(raw)
	i := 0
	for i < len(s) {
		if inScript {
			idx := strings.Index(s[i:], "</script")
			if idx == -1 {
				break
			}
			markup += idx + len("</script>")
			i += idx
			end := strings.IndexByte(s[i:], '>')
			if end >= 0 {
				i += end + 1
			}
			inScript = false
			continue
		}
		if inStyle {
			idx := strings.Index(s[i:], "</style")
			if idx == -1 {
				break
			}
			markup += idx + len("</style>")
			i += idx
			end := strings.IndexByte(s[i:], '>')
			if end >= 0 {
				i += end + 1
			}
			inStyle = false
			continue
		}

		ch := s[i]
		if ch == '<' {
			inTag = true
			markup++
			rest := strings.ToLower(s[i:])
			if strings.HasPrefix(rest, "<script") {
				inScript = true
			} else if strings.HasPrefix(rest, "<style") {
				inStyle = true
			}
			i++
			continue
		}
		if ch == '>' {
			inTag = false
			markup++
			i++
			continue
		}
		if inTag {
			markup++
		} else {
			if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
				text++
			}
		}
		i++
	}
	return text, markup
}
