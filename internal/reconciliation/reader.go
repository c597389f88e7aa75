package reconciliation

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"remind/internal/invoice"
	"remind/internal/logger"
	"remind/pkg/models"
)

// DataReader turns decoded sheet rows into classified invoice records.
type DataReader struct {
	log zerolog.Logger
}

// NewDataReader creates a new data reader
func NewDataReader() *DataReader {
	return &DataReader{
		log: logger.WithComponent("reconciliation-reader"),
	}
}

// BuildRecords maps the table's columns, normalizes dates and classifies every
// row against thresholdDays as of today. IDs are assigned 1..n in row order.
// Blank rows are skipped; bad cells never fail the import.
func (dr *DataReader) BuildRecords(table Table, thresholdDays int, today time.Time) ([]models.InvoiceRecord, invoice.ColumnMapping, int, error) {
	const op = "BuildRecords"

	if len(table.Headers) == 0 || len(table.Rows) == 0 {
		return nil, invoice.ColumnMapping{}, 0, fmt.Errorf("%s: %w", op, ErrEmptySheet)
	}

	mapping := invoice.MapColumns(table.Headers)
	if len(mapping.Unmatched) > 0 {
		unmatched := make([]string, len(mapping.Unmatched))
		for i, f := range mapping.Unmatched {
			unmatched[i] = string(f)
		}
		dr.log.Warn().
			Strs("unmatched_fields", unmatched).
			Strs("headers", table.Headers).
			Msg("Some fields have no matching column, falling back to legacy header names")
	}

	records := make([]models.InvoiceRecord, 0, len(table.Rows))
	skipped := 0
	for i, row := range table.Rows {
		rowNum := i + 2 // Account for header and 0-based indexing

		if isBlank(row) {
			skipped++
			dr.log.Debug().Int("row", rowNum).Msg("Skipping blank row")
			continue
		}

		record := dr.parseRecord(mapping, row, thresholdDays, today)
		record.ID = len(records) + 1

		if record.InvoiceDate == nil && record.RawDate != "" {
			dr.log.Warn().
				Int("row", rowNum).
				Str("date_str", record.RawDate).
				Msg("Invalid invoice date, row will never be overdue")
		}

		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, mapping, skipped, fmt.Errorf("%s: %w", op, ErrEmptySheet)
	}

	dr.log.Info().
		Int("total_rows", len(table.Rows)).
		Int("parsed_records", len(records)).
		Int("skipped_rows", skipped).
		Int("threshold_days", thresholdDays).
		Msg("Invoice rows classified")

	return records, mapping, skipped, nil
}

// parseRecord builds one record from a row. The ID is left to the caller.
func (dr *DataReader) parseRecord(mapping invoice.ColumnMapping, row Row, thresholdDays int, today time.Time) models.InvoiceRecord {
	rawDate := mapping.Lookup(row, invoice.FieldDate)

	record := models.InvoiceRecord{
		ClientName:    mapping.LookupString(row, invoice.FieldName),
		Email:         mapping.LookupString(row, invoice.FieldEmail),
		InvoiceNumber: mapping.LookupString(row, invoice.FieldInvoice),
		Amount:        mapping.LookupString(row, invoice.FieldAmount),
		PaidFlag:      mapping.LookupString(row, invoice.FieldPaid),
		RawDate:       invoice.CellString(rawDate),
	}

	if d, ok := invoice.NormalizeDate(rawDate); ok {
		record.InvoiceDate = &d
	}

	c := invoice.Classify(record.InvoiceDate, record.PaidFlag, thresholdDays, today)
	record.AgeDays = c.AgeDays
	record.Overdue = c.Overdue

	return record
}

func isBlank(row Row) bool {
	for _, v := range row {
		if invoice.CellString(v) != "" {
			return false
		}
	}
	return true
}
