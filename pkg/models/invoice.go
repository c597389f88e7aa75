package models

import "time"

// InvoiceRecord is one imported spreadsheet row.
type InvoiceRecord struct {
	// Core identifiers
	ID            int    // Sequence number assigned at import, stable for the session
	InvoiceNumber string // Human-readable invoice number, carried verbatim

	// Parties
	ClientName string // Client/customer display name
	Email      string // Reminder recipient

	// Dates
	InvoiceDate *time.Time // Normalized calendar date (UTC midnight), nil if unparseable
	RawDate     string     // Original cell value, used for display when InvoiceDate is nil

	// Amount is a display string, never parsed as a number
	Amount string

	// Status
	PaidFlag string // Raw paid column value ("yes", "Y", "no", ...)
	AgeDays  *int   // Days since InvoiceDate, nil if no valid date
	Overdue  bool   // Derived by the classifier, never set directly
	Excluded bool   // User override suppressing the reminder
}

// DisplayDate returns the invoice date as YYYY-MM-DD, or the raw value when the
// date could not be normalized.
func (r *InvoiceRecord) DisplayDate() string {
	if r.InvoiceDate != nil {
		return r.InvoiceDate.Format("2006-01-02")
	}
	return r.RawDate
}

// Days returns the age in days, or 0 with ok=false when unknown.
func (r *InvoiceRecord) Days() (int, bool) {
	if r.AgeDays == nil {
		return 0, false
	}
	return *r.AgeDays, true
}
