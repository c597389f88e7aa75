package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"remind/internal/invoice"
	"remind/internal/reconciliation"
)

// buildTable turns a header row and data rows of display strings into a Table.
// raw, when non-nil, holds unformatted values aligned with rows; it is used
// for the date column only so that date cells surface as spreadsheet serials
// while every other cell keeps its display form.
func buildTable(header []string, rows [][]string, raw [][]string) reconciliation.Table {
	headers := uniqueHeaders(header)
	dateCol := dateColumn(headers)

	table := reconciliation.Table{Headers: headers}
	for i, cells := range rows {
		row := make(reconciliation.Row, len(headers))
		for c, h := range headers {
			row[h] = cellAt(cells, c)
		}
		if dateCol >= 0 && raw != nil && i < len(raw) {
			if v := cellAt(raw[i], dateCol); v != "" {
				row[headers[dateCol]] = numericOrString(v)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// uniqueHeaders trims headers, names blank ones by position and suffixes
// duplicates so no column is lost.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s (%d)", h, n+1)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}

func dateColumn(headers []string) int {
	mapping := invoice.MapColumns(headers)
	want, ok := mapping.Header(invoice.FieldDate)
	if !ok {
		want = "Date"
	}
	for i, h := range headers {
		if h == want {
			return i
		}
	}
	return -1
}

func cellAt(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return cells[i]
}

func numericOrString(s string) any {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return s
}

// stringRows converts Sheets API values to strings.
func stringRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = invoice.CellString(v)
		}
	}
	return out
}

// headerIndex returns the first non-blank row, which holds the headers.
func headerIndex(rows [][]string) int {
	for i, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return i
			}
		}
	}
	return -1
}
