// CLAUDE:SUMMARY Ordered period matchers (weekly → daily → short daily → monthly) with year inference.
package tipparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PeriodKind distinguishes the three calendar shapes a tooltip can carry.
type PeriodKind int

const (
	PeriodWeekly PeriodKind = iota
	PeriodDaily
	PeriodMonthly
)

// Period is a parsed calendar reference. Label is the canonical display
// form; Year/Month/Day form the sort key and are used only for ordering.
// Monthly periods sort with Day 0. For weekly ranges the sort key is the
// start of the window, while the label keeps the explicitly written year.
type Period struct {
	Kind  PeriodKind
	Label string
	Year  int
	Month int
	Day   int
}

// Before orders periods chronologically by (year, month, day).
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	if p.Month != q.Month {
		return p.Month < q.Month
	}
	return p.Day < q.Day
}

const months = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec`

var monthNum = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// Tooltip patterns overlap: a daily string contains a valid monthly
// substring, and a weekly range contains two daily-ish fragments. The
// matchers below are therefore an ordered contract — most specific
// first — and a lower entry is never tried once a higher one matches.
type periodMatcher struct {
	name string
	re   *regexp.Regexp
	// build turns submatches into a Period. fallbackYear fills years
	// the text omitted.
	build func(m []string, fallbackYear int) Period
	// trimTo, when positive, is the submatch whose end delimits the
	// consumed span. Matchers that consume a guard byte past the period
	// text set it so the byte survives into the remainder.
	trimTo int
}

var periodMatchers = []periodMatcher{
	{
		// "Dec 29, 2025 – Jan 4, 2026", "Jan 12 – 18", "Jan 26 – Feb 1"
		name: "weekly",
		re: regexp.MustCompile(
			`(` + months + `)\s+(\d{1,2}),?\s*(\d{4})?\s*[–\-]\s*(?:(` + months + `)\s+)?(\d{1,2}),?\s*(\d{4})?`),
		build: buildWeekly,
	},
	{
		// "Sat, Jan 17, 2026" — weekday prefix required, otherwise this
		// would absorb the start of a weekly range.
		name: "daily",
		re: regexp.MustCompile(
			`(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun),?\s*(` + months + `)\s+(\d{1,2}),?\s*(\d{4})?`),
		build: buildDaily,
	},
	{
		// "Mar 25" — month plus short day, no year. The trailing guard
		// keeps it from nibbling the first two digits of a "Mar 2024"
		// monthly form; it must accept letters too, because tooltips
		// glue the metric name straight onto the day ("Mar 25Visits").
		name:   "shortdaily",
		re:     regexp.MustCompile(`(` + months + `)\s+(\d{1,2})(?:[^0-9]|$)`),
		build:  buildShortDaily,
		trimTo: 2,
	},
	{
		// "Nov 2025"
		name:  "monthly",
		re:    regexp.MustCompile(`(` + months + `)\s+(\d{4})`),
		build: buildMonthly,
	},
}

// forecastNoiseRe is a fixed disclaimer the platform injects into forecast
// tooltips. It contains no period information but its digits and month-like
// words corrupt matching, so it is stripped before any matcher runs.
var forecastNoiseRe = regexp.MustCompile(
	`Forecast\s+based\s+on\s+previous\s+available\s+data\.?\s*Updated\s+weekly\.?`)

func stripBoilerplate(text string) string {
	return forecastNoiseRe.ReplaceAllString(text, "")
}

// parsePeriod tries the ordered matchers on the boilerplate-stripped text
// and returns the first success, plus the text with the matched span
// removed (record extraction must not re-read date digits as values).
// ok is false when no matcher fires; the caller skips the tooltip.
func (p *Parser) parsePeriod(text string) (per Period, remainder string, ok bool) {
	clean := stripBoilerplate(text)
	for _, m := range periodMatchers {
		loc := m.re.FindStringSubmatchIndex(clean)
		if loc == nil {
			continue
		}
		groups := make([]string, 0, len(loc)/2)
		for i := 0; i < len(loc); i += 2 {
			if loc[i] < 0 {
				groups = append(groups, "")
			} else {
				groups = append(groups, clean[loc[i]:loc[i+1]])
			}
		}
		per = m.build(groups, p.opts.FallbackYear)
		end := loc[1]
		if m.trimTo > 0 && loc[2*m.trimTo+1] >= 0 {
			end = loc[2*m.trimTo+1]
		}
		remainder = strings.TrimSpace(clean[:loc[0]] + clean[end:])
		return per, remainder, true
	}
	return Period{}, clean, false
}

// buildWeekly resolves the inclusive week window. Year inference: a
// missing start year is taken from the end year, minus one when the
// window wraps December into January; when neither end carries a year
// the fallback year is assumed. The label keeps the year the text
// actually wrote (the end year when present).
func buildWeekly(m []string, fallbackYear int) Period {
	startMon, startDay := m[1], atoi(m[2])
	startYear := atoiOr(m[3], 0)
	endMon, endDay := m[4], atoi(m[5])
	endYear := atoiOr(m[6], 0)

	labelYear := endYear
	if labelYear == 0 {
		labelYear = startYear
	}
	if labelYear == 0 {
		labelYear = fallbackYear
	}

	if startYear == 0 {
		if endYear != 0 {
			startYear = endYear
			if startMon == "Dec" && endMon == "Jan" {
				startYear = endYear - 1
			}
		} else {
			startYear = fallbackYear
		}
	}

	var label string
	if endMon != "" {
		label = fmt.Sprintf("%s %d – %s %d, %d", startMon, startDay, endMon, endDay, labelYear)
	} else {
		label = fmt.Sprintf("%s %d – %d, %d", startMon, startDay, endDay, labelYear)
	}

	return Period{
		Kind:  PeriodWeekly,
		Label: label,
		Year:  startYear,
		Month: monthNum[startMon],
		Day:   startDay,
	}
}

func buildDaily(m []string, fallbackYear int) Period {
	mon, day, year := m[1], atoi(m[2]), atoiOr(m[3], fallbackYear)
	return Period{
		Kind:  PeriodDaily,
		Label: fmt.Sprintf("%s %d, %d", mon, day, year),
		Year:  year,
		Month: monthNum[mon],
		Day:   day,
	}
}

// buildShortDaily keeps the yearless label as written but sorts under the
// fallback year so short dates interleave sensibly with dated periods.
func buildShortDaily(m []string, fallbackYear int) Period {
	mon, day := m[1], atoi(m[2])
	return Period{
		Kind:  PeriodDaily,
		Label: fmt.Sprintf("%s %d", mon, day),
		Year:  fallbackYear,
		Month: monthNum[mon],
		Day:   day,
	}
}

func buildMonthly(m []string, _ int) Period {
	mon, year := m[1], atoi(m[2])
	return Period{
		Kind:  PeriodMonthly,
		Label: fmt.Sprintf("%s %d", mon, year),
		Year:  year,
		Month: monthNum[mon],
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	return atoi(s)
}
