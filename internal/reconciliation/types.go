package reconciliation

import (
	"time"

	"remind/internal/invoice"
	"remind/pkg/models"
)

// Row is one decoded spreadsheet row keyed by original header. Missing cells
// are empty strings.
type Row map[string]any

// Table is a decoded sheet: headers in column order and the data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// Session is one import: the record set and the inputs it was classified with.
// A new import replaces the whole session.
type Session struct {
	ID            string
	Source        string
	ThresholdDays int
	AsOf          time.Time
	ImportedAt    time.Time
	Records       []models.InvoiceRecord
}

// ImportResult describes a completed import.
type ImportResult struct {
	Session     *Session
	Mapping     invoice.ColumnMapping
	SkippedRows int
}

// Counts summarizes a session for display.
type Counts struct {
	Total    int
	Overdue  int
	Excluded int
	Eligible int
	NoDate   int
}
