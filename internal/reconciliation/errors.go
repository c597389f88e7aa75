package reconciliation

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySheet is returned when an imported sheet has no header or no rows.
	ErrEmptySheet = errors.New("the spreadsheet is empty or has no data rows")

	// ErrNoSession is returned when nothing has been imported yet.
	ErrNoSession = errors.New("no invoices imported yet")

	// ErrNothingToSend is returned when the eligible set is empty.
	ErrNothingToSend = errors.New("no overdue invoices eligible for a reminder")

	// ErrSendInProgress is returned when a send is attempted while another is
	// still outstanding.
	ErrSendInProgress = errors.New("a reminder send is already in progress")
)

// ImportError wraps a failed import with the source it came from.
type ImportError struct {
	// Op is the operation that failed (e.g., "Decode", "BuildRecords").
	Op string

	// Source is the file name or sheet URL being imported.
	Source string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %s failed: %v", e.Source, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new ImportError.
func NewImportError(op, source string, err error) *ImportError {
	return &ImportError{Op: op, Source: source, Err: err}
}
