package sheets

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"remind/internal/reconciliation"
)

// DecodeXLSX reads the active worksheet of an xlsx workbook. The first
// non-blank row holds the headers.
func DecodeXLSX(r io.Reader) (reconciliation.Table, error) {
	const op = "DecodeXLSX"

	f, err := excelize.OpenReader(r)
	if err != nil {
		return reconciliation.Table{}, fmt.Errorf("%s: failed to open workbook: %w", op, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return reconciliation.Table{}, fmt.Errorf("%s: %w", op, reconciliation.ErrEmptySheet)
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return reconciliation.Table{}, fmt.Errorf("%s: failed to read sheet %s: %w", op, sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return reconciliation.Table{}, fmt.Errorf("%s: failed to read raw values of sheet %s: %w", op, sheet, err)
	}

	h := headerIndex(rows)
	if h < 0 {
		return reconciliation.Table{}, fmt.Errorf("%s: %w", op, reconciliation.ErrEmptySheet)
	}

	var rawData [][]string
	if h+1 <= len(raw) {
		rawData = raw[h+1:]
	}
	return buildTable(rows[h], rows[h+1:], rawData), nil
}
