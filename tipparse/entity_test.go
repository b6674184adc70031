package tipparse

import "testing"

func TestExtractEntity_MonthlyTwoDomains(t *testing.T) {
	// WHAT: A monthly entity tooltip yields one record per domain, sharing the period.
	// WHY: Comparison charts stack every competitor into one tooltip.
	p := testParser()
	recs := p.extractEntity("Nov 2025 hm.com 13.5M (12.5M - 15.6M) zara.com 9.8M")
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Key != "hm.com" || recs[0].Value != "13.5M" || recs[0].Period.Label != "Nov 2025" {
		t.Errorf("first record: %+v", recs[0])
	}
	if recs[1].Key != "zara.com" || recs[1].Value != "9.8M" {
		t.Errorf("second record: %+v", recs[1])
	}
}

func TestExtractEntity_GluedDailyText(t *testing.T) {
	// WHAT: Domains glued to the date ("2026hm.com") lose the leading digit run.
	// WHY: Tooltip DOM text concatenates spans without whitespace; the year's
	// digits end up captured as part of the domain label.
	p := testParser()
	recs := p.extractEntity("Sat, Jan 17, 2026hm.com156.9K(146.7K – 173.6K)")
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Key != "hm.com" {
		t.Errorf("domain: got %q, want hm.com", recs[0].Key)
	}
	if recs[0].Value != "156.9K" {
		t.Errorf("value: got %q, want 156.9K", recs[0].Value)
	}
	if recs[0].Period.Label != "Jan 17, 2026" {
		t.Errorf("period: got %q", recs[0].Period.Label)
	}
}

func TestExtractEntity_ForecastPrefixStripped(t *testing.T) {
	// WHAT: "forecasthm.com" emits as hm.com.
	// WHY: Forecast rows prefix the domain with the word "forecast" in the DOM text.
	p := testParser()
	recs := p.extractEntity("Dec 29 – Jan 4, 2026forecasthm.com1.2M")
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Key != "hm.com" {
		t.Errorf("domain: got %q, want hm.com", recs[0].Key)
	}
}

func TestExtractEntity_ExcludedDomainsNeverEmitted(t *testing.T) {
	// WHAT: The platform's own domain and the search engine domain are dropped.
	// WHY: They appear in tooltip chrome and attribution lines, not as data.
	p := testParser()
	recs := p.extractEntity("Nov 2025 semrush.com 99.9M google.com 500M hm.com 13.5M")
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(recs), recs)
	}
	if recs[0].Key != "hm.com" {
		t.Errorf("got %q, want hm.com", recs[0].Key)
	}
}

func TestExtractEntity_NoPeriodNoRecords(t *testing.T) {
	// WHAT: A tooltip without a parseable period contributes nothing.
	// WHY: A value without a period axis position cannot be placed in the pivot.
	p := testParser()
	if recs := p.extractEntity("hm.com 13.5M"); len(recs) != 0 {
		t.Errorf("got %d records, want 0", len(recs))
	}
}

func TestExtractEntity_CustomExclusions(t *testing.T) {
	// WHAT: ExcludedDomains is configurable.
	// WHY: Other analytics hosts have other chrome domains.
	p := New(Options{ExcludedDomains: []string{"hm.com"}})
	recs := p.extractEntity("Nov 2025 hm.com 13.5M zara.com 9.8M")
	if len(recs) != 1 || recs[0].Key != "zara.com" {
		t.Errorf("got %+v, want only zara.com", recs)
	}
}
