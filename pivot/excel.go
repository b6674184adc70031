// CLAUDE:SUMMARY Styled XLSX rendering via excelize, with a raw-dump fallback sheet on total parse failure.
package pivot

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hovertable/hovertable/tipparse"
)

const sheetName = "Chart Data"

// Header fills per dialect, the platform's own palette: blue for entity
// comparisons, green for metric series.
const (
	entityHeaderFill = "4472C4"
	metricHeaderFill = "70AD47"
)

// Excel renders the table as an XLSX payload: styled header row, one row
// per period, auto-sized columns. When the table is empty the raw
// tooltip batch is written instead as a flat two-column dump, so a total
// parse failure still yields every captured string.
func Excel(t *Table, raw []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("pivot: rename sheet: %w", err)
	}

	if t.Empty() {
		if err := writeRawDump(f, raw); err != nil {
			return nil, err
		}
	} else if err := writeGrid(f, t); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("pivot: serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportHeaders returns the export-facing header row: "Period"/"Date",
// then title-cased column names, split into " %" and " Value" pairs when
// the table carries percentages. Exposed so hosts can preview the layout
// without re-deriving it.
func ExportHeaders(t *Table) []string {
	axis := "Period"
	if t.Dialect == tipparse.DialectMetric {
		axis = "Date"
	}
	headers := []string{axis}
	for _, c := range t.Columns {
		name := c
		if t.Dialect == tipparse.DialectMetric {
			name = titleCase(c)
		}
		if t.HasPercent {
			headers = append(headers, name+" %", name+" Value")
		} else {
			headers = append(headers, name)
		}
	}
	return headers
}

func writeGrid(f *excelize.File, t *Table) error {
	headers := ExportHeaders(t)

	fill := entityHeaderFill
	if t.Dialect == tipparse.DialectMetric {
		fill = metricHeaderFill
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return fmt.Errorf("pivot: header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return fmt.Errorf("pivot: cell style: %w", err)
	}
	axisStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    thinBorder(),
	})
	if err != nil {
		return fmt.Errorf("pivot: axis style: %w", err)
	}

	widths := make([]int, len(headers))
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("pivot: header cell: %w", err)
		}
		widths[col] = len(h)
	}

	for rowIdx, p := range t.Periods {
		row := rowIdx + 2
		values := exportRow(t, p.Label)
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("pivot: data cell: %w", err)
			}
			if len(v) > widths[col] {
				widths[col] = len(v)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	lastRow := len(t.Periods) + 1
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("pivot: apply header style: %w", err)
	}
	if lastRow >= 2 {
		if err := f.SetCellStyle(sheetName, "A2", fmt.Sprintf("A%d", lastRow), axisStyle); err != nil {
			return fmt.Errorf("pivot: apply axis style: %w", err)
		}
		if len(headers) > 1 {
			if err := f.SetCellStyle(sheetName, "B2", fmt.Sprintf("%s%d", lastCol, lastRow), cellStyle); err != nil {
				return fmt.Errorf("pivot: apply cell style: %w", err)
			}
		}
	}

	for col := range headers {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheetName, name, name, float64(widths[col]+3)); err != nil {
			return fmt.Errorf("pivot: column width: %w", err)
		}
	}
	return nil
}

// exportRow flattens one period's cells in header order.
func exportRow(t *Table, periodLabel string) []string {
	values := []string{periodLabel}
	for _, c := range t.Columns {
		cell, ok := t.Cell(periodLabel, c)
		if t.HasPercent {
			pct, val := Missing, Missing
			if ok {
				val = cell.Value
				if cell.Percentage != "" {
					pct = cell.Percentage
				}
			}
			values = append(values, pct, val)
			continue
		}
		if ok {
			values = append(values, cell.Value)
		} else {
			values = append(values, Missing)
		}
	}
	return values
}

// writeRawDump writes the fallback sheet: index and raw text, one row per
// captured tooltip. Extraction is never silently lossy.
func writeRawDump(f *excelize.File, raw []string) error {
	if err := f.SetCellValue(sheetName, "A1", "Data Point"); err != nil {
		return fmt.Errorf("pivot: dump header: %w", err)
	}
	if err := f.SetCellValue(sheetName, "B1", "Raw Tooltip Text"); err != nil {
		return fmt.Errorf("pivot: dump header: %w", err)
	}
	for i, text := range raw {
		row := i + 2
		if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1); err != nil {
			return fmt.Errorf("pivot: dump row: %w", err)
		}
		if err := f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), text); err != nil {
			return fmt.Errorf("pivot: dump row: %w", err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "A", 15); err != nil {
		return err
	}
	return f.SetColWidth(sheetName, "B", "B", 80)
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}
}

// titleCase converts a metric column key ("traffic_cost") to its export
// display form ("Traffic Cost"). Entity domains are left verbatim — a
// spreadsheet header reading "Hm.Com" helps nobody.
func titleCase(key string) string {
	words := []byte(key)
	upper := true
	for i, b := range words {
		switch {
		case b == '_':
			words[i] = ' '
			upper = true
		case upper && b >= 'a' && b <= 'z':
			words[i] = b - 'a' + 'A'
			upper = false
		case b == ' ':
			upper = true
		default:
			upper = false
		}
	}
	return string(words)
}
