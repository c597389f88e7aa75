package sheets

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"remind/pkg/models"
)

// ExportFileName is the default name of the overdue export.
const ExportFileName = "overdue.xlsx"

// ExportHeaders are the columns of the overdue export.
var ExportHeaders = []string{"client", "email", "invoice", "date", "amount", "days"}

// exportRow converts a record to export cells in ExportHeaders order.
func exportRow(r models.InvoiceRecord) []interface{} {
	var days interface{} = ""
	if d, ok := r.Days(); ok {
		days = d
	}
	return []interface{}{
		r.ClientName,
		r.Email,
		r.InvoiceNumber,
		r.DisplayDate(),
		r.Amount,
		days,
	}
}

// WriteOverdueXLSX writes records as an xlsx workbook with a single "Overdue"
// sheet.
func WriteOverdueXLSX(w io.Writer, records []models.InvoiceRecord) error {
	const op = "WriteOverdueXLSX"
	const sheet = "Overdue"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("%s: failed to name sheet: %w", op, err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("%s: failed to create stream writer: %w", op, err)
	}

	// Column widths must be set before the first row is streamed.
	for _, w := range []struct {
		min, max int
		width    float64
	}{{1, 1, 28}, {2, 2, 32}, {3, 5, 14}} {
		if err := sw.SetColWidth(w.min, w.max, w.width); err != nil {
			return fmt.Errorf("%s: failed to set column width: %w", op, err)
		}
	}

	header := make([]interface{}, len(ExportHeaders))
	for i, h := range ExportHeaders {
		header[i] = h
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: headerStyle(f)}); err != nil {
		return fmt.Errorf("%s: failed to write header: %w", op, err)
	}

	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, exportRow(r)); err != nil {
			return fmt.Errorf("%s: failed to write row %d: %w", op, i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("%s: failed to flush sheet: %w", op, err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}
	return nil
}

func headerStyle(f *excelize.File) int {
	id, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0
	}
	return id
}
