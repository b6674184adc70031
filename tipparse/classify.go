package tipparse

import (
	"regexp"
	"strings"
)

// Lexical signals. A "domain token" is a lowercase alphanumeric/hyphen
// label followed by .com — the shape competitor entities take in the
// charts this targets. Calendar tokens are English month and weekday
// abbreviations, the only locale in scope.
var (
	domainTokenRe   = regexp.MustCompile(`(?i)[a-z0-9\-]+\.com`)
	calendarTokenRe = regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec|Mon|Tue|Wed|Thu|Fri|Sat|Sun)\b`)
)

// Valid reports whether a single captured string is worth parsing.
// "Difference" marks comparison-delta overlays, which are chart chrome,
// not observations — those are dropped in either dialect. The hover
// sweep uses this to decide whether a position yielded real data.
func Valid(tip string) bool {
	if strings.Contains(tip, "Difference") {
		return false
	}
	return domainTokenRe.MatchString(tip) || calendarTokenRe.MatchString(tip)
}

// filterValid drops tooltips that fail both dialect checks, preserving
// order. The discarded strings stay in the caller's raw batch.
func filterValid(tips []string) []string {
	var out []string
	for _, t := range tips {
		if Valid(t) {
			out = append(out, t)
		}
	}
	return out
}

// Classify inspects the whole batch, not individual strings: a single
// domain token anywhere switches the entire batch to the entity dialect.
// Mixed batches do occur (an entity chart whose edge tooltips only show
// a date) and per-tooltip classification would split them.
func Classify(tips []string) Dialect {
	for _, t := range tips {
		if domainTokenRe.MatchString(t) {
			return DialectEntity
		}
	}
	return DialectMetric
}
