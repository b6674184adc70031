// CLAUDE:SUMMARY Core tooltip parsing engine: classify dialect, parse periods, extract records, dedupe.
// Package tipparse reconstructs structured time-series records from the
// noisy text snippets that chart tooltips expose.
//
// The input is a batch of raw tooltip strings captured by hover. Nothing
// about their schema is declared anywhere: dates arrive in three formats,
// values in compact notation, and two chart dialects compete (entity
// comparison charts listing domains, and single-series metric charts).
// tipparse classifies the batch, extracts typed records per tooltip with
// ordered pattern matchers, and collapses duplicates from repeated hover
// passes.
//
// Everything here is pure: no I/O, no clock, no shared state between
// calls. A fixed input batch always produces the identical record list.
package tipparse

import "strings"

// Dialect identifies which record schema a tooltip batch follows.
type Dialect int

const (
	// DialectMetric is a single-series chart: one metric per tooltip,
	// optionally with a percentage alongside the absolute value.
	DialectMetric Dialect = iota
	// DialectEntity is a comparison chart: several domain-like entities
	// per tooltip, each with a compact value.
	DialectEntity
)

func (d Dialect) String() string {
	if d == DialectEntity {
		return "entity"
	}
	return "metric"
}

// Record is one extracted observation. Key is the entity domain or the
// normalized metric name. Percentage is set only by the complex metric
// strategy. Value keeps the source formatting verbatim ("13.5M",
// "$340,976.00") — downstream rendering must not re-derive it.
type Record struct {
	Period     Period
	Key        string
	Percentage string
	Value      string
}

// identity is the dedup key: the full field tuple, excluding the derived
// sort key fields inside Period (the label alone pins the period, since
// two periods with identical parsed fields produce identical labels).
func (r Record) identity() string {
	return r.Key + "\x1f" + r.Period.Label + "\x1f" + r.Percentage + "\x1f" + r.Value
}

// Options tunes parsing. The zero value is usable.
type Options struct {
	// FallbackYear is assumed when a period carries no year at all.
	// Default: 2026.
	FallbackYear int

	// ExcludedDomains are never emitted as entity records. Defaults to
	// the analytics platform's own domain and the search engine domain,
	// which appear in tooltips as chrome rather than data.
	ExcludedDomains []string
}

func (o Options) withDefaults() Options {
	if o.FallbackYear == 0 {
		o.FallbackYear = 2026
	}
	if o.ExcludedDomains == nil {
		o.ExcludedDomains = []string{"semrush.com", "google.com"}
	}
	return o
}

// Parser runs the extraction stages over tooltip batches.
type Parser struct {
	opts     Options
	excluded map[string]bool
}

// New creates a Parser.
func New(opts Options) *Parser {
	opts = opts.withDefaults()
	excluded := make(map[string]bool, len(opts.ExcludedDomains))
	for _, d := range opts.ExcludedDomains {
		excluded[strings.ToLower(d)] = true
	}
	return &Parser{opts: opts, excluded: excluded}
}

// Batch is the outcome of parsing one captured tooltip batch.
type Batch struct {
	Dialect Dialect
	// Records is the deduplicated record list in first-seen order.
	Records []Record
	// Kept counts the tooltips that passed the validity filter.
	Kept int
}

// Empty reports whether no tooltip yielded any record. Callers surface
// this as "could not parse structured data" while keeping the raw batch.
func (b Batch) Empty() bool { return len(b.Records) == 0 }

// ParseBatch runs the full stage chain over a captured batch:
// validity filter → classify → per-tooltip period parse + record
// extraction → dedupe. Tooltips that match no period or no record
// pattern contribute nothing; they never abort the batch.
func (p *Parser) ParseBatch(tips []string) Batch {
	valid := filterValid(tips)
	dialect := Classify(valid)

	var records []Record
	for _, tip := range valid {
		if dialect == DialectEntity {
			records = append(records, p.extractEntity(tip)...)
		} else {
			records = append(records, p.extractMetric(tip)...)
		}
	}

	return Batch{
		Dialect: dialect,
		Records: Dedupe(records),
		Kept:    len(valid),
	}
}

// Parse runs ParseBatch with default options.
func Parse(tips []string) Batch {
	return New(Options{}).ParseBatch(tips)
}
