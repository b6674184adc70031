package tipparse

import (
	"regexp"
	"strings"
)

// The metric dialect has two competing layouts, tried in order per
// tooltip. The simple layout is a label directly followed by a value
// ("Traffic Cost $340,976.00"). The complex layout wedges a percentage
// between label and magnitude-suffixed value ("Visits 16.09% 398.6K").
// The complex strategy runs only when the simple one yields nothing —
// the order is part of the contract, not an optimization.
var (
	metricSimpleRe = regexp.MustCompile(
		`([A-Za-z\s]+?)[\s:]*([$]?[\d,]+\.?\d*)`)
	metricComplexRe = regexp.MustCompile(
		`([A-Za-z\s]+?)\s*([\d.]+)[\s%]*([\d.]+[KMB])(?:\s*\([^)]*\))?`)
)

// extractMetric pulls metric records out of one tooltip. Tooltips
// mentioning "Forecast" are skipped wholesale: forecast rows must never
// be reported as observed data. The matched period span is removed from
// the text first so date digits cannot be re-read as values.
func (p *Parser) extractMetric(tip string) []Record {
	if strings.Contains(tip, "Forecast") {
		return nil
	}

	per, remainder, ok := p.parsePeriod(tip)
	if !ok {
		return nil
	}

	if recs := p.metricSimple(remainder, per); len(recs) > 0 {
		return recs
	}
	return p.metricComplex(remainder, per)
}

// metricSimple extracts "label value" pairs. A candidate value counts
// only if it carries a currency symbol or does not begin with a letter;
// without that guard the trailing words of a label get captured as a
// value. Known edge case: a value starting with a bare magnitude letter
// fails the guard — accepted heuristic, not worth guessing around.
func (p *Parser) metricSimple(text string, per Period) []Record {
	var out []Record
	for _, m := range metricSimpleRe.FindAllStringSubmatch(text, -1) {
		name := normalizeMetric(m[1])
		value := strings.TrimSpace(m[2])
		if name == "" || value == "" {
			continue
		}
		if !strings.Contains(value, "$") && isAlpha(value[0]) {
			continue
		}
		out = append(out, Record{Period: per, Key: name, Value: value})
	}
	return out
}

// metricComplex extracts "label percentage value" triples, normalizing
// the percentage to always carry a trailing %.
func (p *Parser) metricComplex(text string, per Period) []Record {
	var out []Record
	for _, m := range metricComplexRe.FindAllStringSubmatch(text, -1) {
		name := normalizeMetric(m[1])
		pct := strings.TrimSpace(m[2])
		value := strings.TrimSpace(m[3])
		if name == "" || pct == "" || value == "" {
			continue
		}
		if !strings.HasSuffix(pct, "%") {
			pct += "%"
		}
		out = append(out, Record{Period: per, Key: name, Percentage: pct, Value: value})
	}
	return out
}

// normalizeMetric turns a display label into a stable column key:
// trimmed, lowercased, internal spaces as underscores.
func normalizeMetric(label string) string {
	name := strings.ToLower(strings.TrimSpace(label))
	return strings.ReplaceAll(name, " ", "_")
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
