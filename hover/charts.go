package hover

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
)

// Chart describes one chart found on a loaded page. Y is the absolute
// page offset of the svg, used to re-locate the element later (element
// handles go stale across scrolls and re-renders).
type Chart struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Y      int    `json:"y"`
}

// discoverJS finds chart-sized svg elements and walks up the DOM for a
// heading to use as the chart title. Charts smaller than 200x80 are
// sparklines and icons, not hover targets.
const discoverJS = `() => {
	const svgs = document.querySelectorAll('svg');
	const results = [];
	const seen = new Set();

	for (const svg of svgs) {
		const r = svg.getBoundingClientRect();
		if (r.width < 200 || r.height < 80) continue;

		let parent = svg.parentElement;
		let title = '';
		for (let i = 0; i < 10 && parent; i++) {
			const headings = parent.querySelectorAll('h2, h3, h4, [class*="title"], [class*="Title"]');
			for (const h of headings) {
				const t = h.textContent.trim();
				if (t.length > 2 && t.length < 80 && !seen.has(t)) {
					title = t;
					break;
				}
			}
			if (title) break;
			parent = parent.parentElement;
		}

		if (!title) title = 'Chart (' + Math.round(r.width) + 'x' + Math.round(r.height) + ')';

		// Some frameworks duplicate heading text into aria shadows.
		const key = title.replace(/(.{4,})\1/i, '$1').trim();
		if (seen.has(key)) continue;
		seen.add(key);

		results.push({
			title: key,
			width: Math.round(r.width),
			height: Math.round(r.height),
			y: Math.round(window.scrollY + r.top),
		});
	}
	return results;
}`

// locateJS finds the svg element nearest a recorded absolute Y and
// scrolls it into view. `y` drifts when the page re-renders, so the
// match is nearest-within-200px rather than exact.
const locateJS = `(targetY) => {
	const svgs = document.querySelectorAll('svg');
	let best = null;
	let bestDist = Infinity;

	for (const s of svgs) {
		const r = s.getBoundingClientRect();
		if (r.width < 200 || r.height < 80) continue;
		const absY = window.scrollY + r.top;
		const dist = Math.abs(absY - targetY);
		if (dist < 200 && dist < bestDist) {
			bestDist = dist;
			best = s;
		}
	}

	if (best) best.scrollIntoView({block: 'center'});
	return best;
}`

// DiscoverCharts scans the loaded page for hoverable charts.
func DiscoverCharts(ctx context.Context, page *rod.Page) ([]Chart, error) {
	res, err := page.Context(ctx).Eval(discoverJS)
	if err != nil {
		return nil, fmt.Errorf("hover: discover charts: %w", err)
	}

	var charts []Chart
	for _, v := range res.Value.Arr() {
		charts = append(charts, Chart{
			Title:  v.Get("title").Str(),
			Width:  v.Get("width").Int(),
			Height: v.Get("height").Int(),
			Y:      v.Get("y").Int(),
		})
	}
	return charts, nil
}

// LocateChart re-finds the svg element for a previously discovered
// chart and scrolls it into view.
func LocateChart(ctx context.Context, page *rod.Page, c Chart) (*rod.Element, error) {
	el, err := page.Context(ctx).ElementByJS(rod.Eval(locateJS, c.Y))
	if err != nil {
		return nil, fmt.Errorf("hover: %w: %s", ErrChartGone, c.Title)
	}
	return el, nil
}
