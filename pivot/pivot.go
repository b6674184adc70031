// Package pivot turns a deduplicated record set into a dense
// period × column table, and renders it as a fixed-width text report or
// a styled XLSX payload.
//
// The grid is built fresh per extraction and never mutated afterwards;
// both renderers read the same structure so the two hosts cannot drift.
package pivot

import (
	"sort"

	"github.com/hovertable/hovertable/tipparse"
)

// Missing marks a (period, column) pair with no record.
const Missing = "-"

// Cell is one grid entry. Percentage is empty for entity records and
// simple-format metric records.
type Cell struct {
	Percentage string
	Value      string
}

type cellKey struct {
	period string
	column string
}

// Table is the dense pivot grid. Periods are chronological, columns
// lexicographic; both orders are fixed at build time so every render of
// the same table is byte-identical.
type Table struct {
	Dialect tipparse.Dialect
	Periods []tipparse.Period
	Columns []string
	// HasPercent is true when any record carries a percentage, which
	// switches the renderers to split %/value column pairs.
	HasPercent bool
	// Total is the deduplicated record count, reported in summaries.
	Total int

	cells map[cellKey]Cell
}

// Build constructs the pivot from a parsed batch. Every record lands in
// exactly one cell; when two records collide on the same (period, column)
// pair with different values — conflicting source data — the first one
// seen wins, for determinism.
func Build(b tipparse.Batch) *Table {
	t := &Table{
		Dialect: b.Dialect,
		Total:   len(b.Records),
		cells:   make(map[cellKey]Cell, len(b.Records)),
	}

	periodByLabel := make(map[string]tipparse.Period)
	colSeen := make(map[string]bool)

	for _, r := range b.Records {
		if _, ok := periodByLabel[r.Period.Label]; !ok {
			periodByLabel[r.Period.Label] = r.Period
			t.Periods = append(t.Periods, r.Period)
		}
		if !colSeen[r.Key] {
			colSeen[r.Key] = true
			t.Columns = append(t.Columns, r.Key)
		}
		if r.Percentage != "" {
			t.HasPercent = true
		}

		k := cellKey{period: r.Period.Label, column: r.Key}
		if _, taken := t.cells[k]; taken {
			continue
		}
		t.cells[k] = Cell{Percentage: r.Percentage, Value: r.Value}
	}

	sort.SliceStable(t.Periods, func(i, j int) bool {
		return t.Periods[i].Before(t.Periods[j])
	})
	sort.Strings(t.Columns)

	return t
}

// Cell returns the grid entry for (periodLabel, column). ok is false for
// pairs with no record; renderers print Missing for those.
func (t *Table) Cell(periodLabel, column string) (Cell, bool) {
	c, ok := t.cells[cellKey{period: periodLabel, column: column}]
	return c, ok
}

// Empty reports whether the table holds no records at all.
func (t *Table) Empty() bool {
	return t == nil || t.Total == 0
}
