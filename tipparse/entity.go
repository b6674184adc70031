package tipparse

import (
	"regexp"
	"strings"
)

// entityPairRe matches one "domain, value" occurrence: a domain label,
// an optional separator, a compact magnitude-suffixed value, and an
// optional parenthetical confidence range which is captured away but
// never emitted.
var entityPairRe = regexp.MustCompile(
	`(?i)([a-z0-9\-]+\.com)[\s:]*(\d{1,3}(?:[,.]\d+)?\s*[MKB])[\s]*(?:\([^)]*\))?`)

// Tooltip text runs dates, domains, and values together without
// separators, so the domain capture can pick up glued artifacts:
// "2025hm.com" (trailing year digits) and "forecasthm.com" (a forecast
// row label). Both prefixes are stripped before the domain is emitted.
var (
	leadingDigitsRe  = regexp.MustCompile(`^\d+`)
	forecastPrefixRe = regexp.MustCompile(`(?i)^forecast`)
)

// extractEntity pulls every (domain, value) pair out of one tooltip.
// All pairs share the tooltip's period. Tooltips without a parseable
// period contribute nothing.
func (p *Parser) extractEntity(tip string) []Record {
	per, _, ok := p.parsePeriod(tip)
	if !ok {
		return nil
	}

	clean := stripBoilerplate(tip)

	var out []Record
	for _, m := range entityPairRe.FindAllStringSubmatch(clean, -1) {
		domain := strings.ToLower(strings.TrimSpace(m[1]))
		domain = leadingDigitsRe.ReplaceAllString(domain, "")
		domain = forecastPrefixRe.ReplaceAllString(domain, "")
		if domain == "" || p.excluded[domain] {
			continue
		}
		out = append(out, Record{
			Period: per,
			Key:    domain,
			Value:  strings.TrimSpace(m[2]),
		})
	}
	return out
}
