// Package hover drives a real Chrome instance over a page of charts:
// it discovers chart elements, sweeps synthetic pointer events across
// them, and captures the tooltip text each hover position reveals.
//
// The package deals only in raw tooltip strings; parsing them into
// structured records is tipparse's job.
package hover

import "errors"

var (
	// ErrNoCharts means the page loaded but no chart-sized svg was found.
	ErrNoCharts = errors.New("hover: no charts found on page")

	// ErrChartGone means a previously discovered chart could not be
	// re-located, usually after a client-side re-render.
	ErrChartGone = errors.New("hover: chart no longer present")

	// ErrNotOpen means an operation needs a page but Open was not
	// called or the session was closed.
	ErrNotOpen = errors.New("hover: no page open")

	// ErrBadChartIndex means the chart selector was out of range.
	ErrBadChartIndex = errors.New("hover: chart index out of range")
)
