package pivot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hovertable/hovertable/tipparse"
)

// Text renders the table as a fixed-width report: header row, separator
// rule, one row per period, separator, and a record-count summary line.
// Column widths size to the widest of header or cell plus padding.
func Text(t *Table) string {
	if t.Empty() {
		return "No structured data.\n"
	}
	if t.Dialect == tipparse.DialectEntity {
		return textEntity(t)
	}
	if t.HasPercent {
		return textMetricPercent(t)
	}
	return textMetricSimple(t)
}

func textEntity(t *Table) string {
	pw := axisWidth(t, 12)
	widths := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		maxVal := len(Missing)
		for _, p := range t.Periods {
			if cell, ok := t.Cell(p.Label, c); ok && len(cell.Value) > maxVal {
				maxVal = len(cell.Value)
			}
		}
		widths[c] = max(len(c)+2, maxVal+2)
	}

	var b strings.Builder
	b.WriteString(pad("Period", pw))
	for _, c := range t.Columns {
		b.WriteString(pad(c, widths[c]))
	}
	header := b.String()
	sep := strings.Repeat("-", len(header))

	b.Reset()
	b.WriteString(header + "\n" + sep + "\n")
	for _, p := range t.Periods {
		b.WriteString(pad(p.Label, pw))
		for _, c := range t.Columns {
			b.WriteString(pad(cellValue(t, p.Label, c), widths[c]))
		}
		b.WriteString("\n")
	}
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "Total: %d data points\n", t.Total)
	return b.String()
}

func textMetricSimple(t *Table) string {
	pw := axisWidth(t, 15)
	widths := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		widths[c] = max(len(c)+2, 12)
	}

	var b strings.Builder
	b.WriteString(pad("Date", pw))
	for _, c := range t.Columns {
		b.WriteString(pad(strings.ToUpper(c), widths[c]))
	}
	header := b.String()
	sep := strings.Repeat("-", len(header))

	b.Reset()
	b.WriteString(header + "\n" + sep + "\n")
	for _, p := range t.Periods {
		b.WriteString(pad(p.Label, pw))
		for _, c := range t.Columns {
			b.WriteString(pad(cellValue(t, p.Label, c), widths[c]))
		}
		b.WriteString("\n")
	}
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "Total: %d data points\n", t.Total)
	return b.String()
}

// textMetricPercent doubles each column into a % and a Value subcolumn.
func textMetricPercent(t *Table) string {
	pw := axisWidth(t, 15)
	pctW := make(map[string]int, len(t.Columns))
	valW := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		pctW[c] = max(len(c)+4, 8)
		valW[c] = max(len(c)+4, 10)
	}

	var b strings.Builder
	b.WriteString(pad("Date", pw))
	for _, c := range t.Columns {
		u := strings.ToUpper(c)
		b.WriteString(pad(u+" %", pctW[c]))
		b.WriteString(pad(u+" Value", valW[c]))
	}
	header := b.String()
	sep := strings.Repeat("-", len(header))

	b.Reset()
	b.WriteString(header + "\n" + sep + "\n")
	for _, p := range t.Periods {
		b.WriteString(pad(p.Label, pw))
		for _, c := range t.Columns {
			pct, val := Missing, Missing
			if cell, ok := t.Cell(p.Label, c); ok {
				val = cell.Value
				if cell.Percentage != "" {
					pct = cell.Percentage
				}
			}
			b.WriteString(pad(pct, pctW[c]))
			b.WriteString(pad(val, valW[c]))
		}
		b.WriteString("\n")
	}
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "Total: %d data points\n", t.Total)
	return b.String()
}

// axisWidth sizes the period column: widest label plus padding, floored.
// Widths count runes, not bytes — weekly labels carry an en dash.
func axisWidth(t *Table, floor int) int {
	w := floor
	for _, p := range t.Periods {
		if n := utf8.RuneCountInString(p.Label) + 2; n > w {
			w = n
		}
	}
	return w
}

func cellValue(t *Table, periodLabel, column string) string {
	if cell, ok := t.Cell(periodLabel, column); ok {
		return cell.Value
	}
	return Missing
}

// pad left-justifies s in a field of w runes, never truncating.
func pad(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}
