// CLAUDE:SUMMARY Hover sweep engine: dispatches synthetic pointer events across a chart and captures visible tooltip text.
// Package probe drives the hover sweep over a single chart element.
//
// The sweep runs in two passes. A coarse pass probes every 10% of the
// chart width to find the region that actually holds data (charts are
// often wider than their plotted series). A detailed pass then walks
// that region percent by percent, padded by 8 on each side, trying a
// ladder of vertical offsets at every step until a tooltip shows.
//
// Events are dispatched from JavaScript rather than real mouse input:
// React-style charts listen for synthetic-compatible pointer events and
// ignore CDP mouse moves that don't bubble through their root.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/hovertable/hovertable/tipparse"
)

// Progress is called during the detailed sweep with the current
// position, the sweep end, and the number of tooltips captured so far.
type Progress func(pos, end, captured int)

// Options tunes the sweep.
type Options struct {
	// HoverDelay is the wait after each detailed-pass event dispatch,
	// giving the chart time to render its tooltip.
	HoverDelay time.Duration

	// SettleDelay is the (shorter) wait used during the coarse pass.
	SettleDelay time.Duration

	// CoarseOnly restricts the capture pass to the coarse hit positions
	// instead of walking the padded region percent by percent.
	CoarseOnly bool

	// MinTextLen/MaxTextLen bound accepted tooltip text. Shorter is
	// axis labels, longer is page chrome that leaked into a selector.
	MinTextLen int
	MaxTextLen int
}

func (o *Options) defaults() {
	if o.HoverDelay <= 0 {
		o.HoverDelay = 150 * time.Millisecond
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 80 * time.Millisecond
	}
	if o.MinTextLen <= 0 {
		o.MinTextLen = 10
	}
	if o.MaxTextLen <= 0 {
		o.MaxTextLen = 800
	}
}

// dispatchJS fires the pointer event ladder at an offset from the
// chart centre. `this` is the chart element. elementFromPoint picks
// the topmost overlay at that point, which is usually the hover
// capture layer, not the svg itself.
const dispatchJS = `(xOff, yOff) => {
	const rect = this.getBoundingClientRect();
	const x = rect.left + rect.width / 2 + xOff;
	const y = rect.top + rect.height / 2 + yOff;
	const target = document.elementFromPoint(x, y) || this;
	for (const name of ['pointerenter', 'pointermove', 'mouseover', 'mousemove']) {
		target.dispatchEvent(new PointerEvent(name, {
			clientX: x, clientY: y,
			bubbles: true, cancelable: true, view: window,
		}));
	}
}`

// quickCheckJS reports whether any tooltip-shaped element is currently
// visible. Cheaper than a full capture; used by the coarse pass.
const quickCheckJS = `(minLen, maxLen) => {
	const selectors = ['[role="tooltip"]', 'div[class*="tooltip"]', 'div[class*="Tooltip"]',
		'div[class*="popover"]', 'div[class*="Popover"]', 'div[class*="chartTooltip"]'];
	for (const sel of selectors) {
		try {
			for (const el of document.querySelectorAll(sel)) {
				const style = window.getComputedStyle(el);
				if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') continue;
				const text = el.textContent.trim();
				if (text.length > minLen && text.length < maxLen) return true;
			}
		} catch (e) {}
	}
	return false;
}`

// captureJS collects the text of every visible tooltip-shaped element.
// Falls back to scanning positioned divs that contain a digit, which
// catches custom tooltip implementations with unhelpful class names.
const captureJS = `(minLen, maxLen) => {
	const selectors = [
		'[role="tooltip"]',
		'div[class*="tooltip"]', 'div[class*="Tooltip"]',
		'div[class*="popover"]', 'div[class*="Popover"]',
		'div[class*="chartTooltip"]', 'div[class*="chart-tooltip"]',
		'g[role="tooltip"]', 'text[class*="tooltip"]',
	];
	const results = [];
	const checked = new Set();
	for (const sel of selectors) {
		try {
			for (const el of document.querySelectorAll(sel)) {
				if (checked.has(el)) continue;
				checked.add(el);
				const style = window.getComputedStyle(el);
				if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') continue;
				const text = el.textContent.trim();
				if (text.length > minLen && text.length < maxLen) results.push(text);
			}
		} catch (e) {}
	}
	if (results.length === 0) {
		for (const d of document.querySelectorAll('div')) {
			if (checked.has(d)) continue;
			const r = d.getBoundingClientRect();
			if (r.width <= 50 || r.width >= 500 || r.height <= 30 || r.height >= 500) continue;
			const st = window.getComputedStyle(d);
			if (st.position !== 'absolute' && st.position !== 'fixed') continue;
			if (st.display === 'none' || st.visibility === 'hidden' || st.opacity === '0') continue;
			const t = d.textContent.trim();
			if (t.length > minLen && t.length < maxLen && /\d/.test(t)) results.push(t);
		}
	}
	return results;
}`

// activateJS wakes the tooltip system with a single hover at the
// chart centre before the sweep starts. Some charts lazily attach
// listeners on first pointer entry.
const activateJS = `() => {
	const rect = this.getBoundingClientRect();
	const x = rect.left + rect.width / 2;
	const y = rect.top + rect.height / 2;
	const target = document.elementFromPoint(x, y) || this;
	for (const name of ['pointerenter', 'mouseover']) {
		target.dispatchEvent(new PointerEvent(name, {
			clientX: x, clientY: y,
			bubbles: true, cancelable: true, view: window,
		}));
	}
}`

// Sweep hovers across the chart element and returns the unique tooltip
// texts in the order they first appeared.
func Sweep(ctx context.Context, page *rod.Page, chart *rod.Element, opts Options, progress Progress) ([]string, error) {
	opts.defaults()

	width, height, err := elementSize(chart)
	if err != nil {
		return nil, fmt.Errorf("probe: chart size: %w", err)
	}

	if _, err := chart.Eval(`() => this.scrollIntoView({block: 'center'})`); err != nil {
		return nil, fmt.Errorf("probe: scroll to chart: %w", err)
	}
	if err := sleep(ctx, time.Second); err != nil {
		return nil, err
	}

	// Best effort; some charts need no activation.
	chart.Eval(activateJS)
	if err := sleep(ctx, 500*time.Millisecond); err != nil {
		return nil, err
	}

	yOffsets := offsetLadder(height)

	// Coarse pass: find the active data region.
	var found []int
	for pos := 0; pos <= 100; pos += 10 {
		xOff := xOffset(width, pos)
		for _, yOff := range yOffsets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if _, err := chart.Eval(dispatchJS, xOff, yOff); err != nil {
				continue
			}
			if err := sleep(ctx, opts.SettleDelay); err != nil {
				return nil, err
			}
			res, err := page.Eval(quickCheckJS, opts.MinTextLen, opts.MaxTextLen)
			if err != nil {
				continue
			}
			if res.Value.Bool() {
				found = append(found, pos)
				break
			}
		}
	}

	positions := sweepPositions(found, opts.CoarseOnly)
	if len(positions) == 0 {
		return nil, nil
	}
	end := positions[len(positions)-1]

	// Capture pass.
	var tips []string
	seen := make(map[string]bool)
	for _, pos := range positions {
		xOff := xOffset(width, pos)
		for _, yOff := range yOffsets {
			if err := ctx.Err(); err != nil {
				return tips, err
			}
			if _, err := chart.Eval(dispatchJS, xOff, yOff); err != nil {
				continue
			}
			if err := sleep(ctx, opts.HoverDelay); err != nil {
				return tips, err
			}
			res, err := page.Eval(captureJS, opts.MinTextLen, opts.MaxTextLen)
			if err != nil {
				continue
			}

			gotOne := false
			for _, v := range res.Value.Arr() {
				tip := v.Str()
				if !tipparse.Valid(tip) || seen[tip] {
					continue
				}
				seen[tip] = true
				tips = append(tips, tip)
				gotOne = true
			}
			if gotOne {
				break // next X; this offset works here
			}
		}
		if progress != nil {
			progress(pos, end, len(tips))
		}
	}

	return tips, nil
}

// sweepPositions expands the coarse hits into the capture walk: the
// padded [first−8, last+8] range at 1% steps, or the hits themselves in
// coarse-only mode.
func sweepPositions(found []int, coarseOnly bool) []int {
	if len(found) == 0 {
		return nil
	}
	if coarseOnly {
		return found
	}
	start := max(0, found[0]-8)
	end := min(100, found[len(found)-1]+8)
	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}

// xOffset maps a 0..100 sweep position onto a pixel offset from the
// chart centre, spanning -width..+width. The double span compensates
// for charts whose plot area overflows the svg bounding box.
func xOffset(width float64, pos int) int {
	frac := float64(pos) / 100
	return int(-width + width*2*frac)
}

// offsetLadder returns the vertical offsets to try at each X, biased
// upward because line charts plot above the horizontal midline.
func offsetLadder(height float64) []int {
	return []int{
		0,
		-int(height * 0.05),
		-int(height * 0.10),
		-int(height * 0.15),
		-int(height * 0.20),
		int(height * 0.05),
		int(height * 0.10),
	}
}

func elementSize(el *rod.Element) (width, height float64, err error) {
	res, err := el.Eval(`() => {
		const r = this.getBoundingClientRect();
		return {width: r.width, height: r.height};
	}`)
	if err != nil {
		return 0, 0, err
	}
	return res.Value.Get("width").Num(), res.Value.Get("height").Num(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
