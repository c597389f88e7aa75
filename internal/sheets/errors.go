package sheets

import "errors"

var (
	// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format (use .xlsx or .csv)")

	// ErrInvalidSheetURL is returned when a Google Sheets URL has no spreadsheet ID.
	ErrInvalidSheetURL = errors.New("invalid Google Sheets URL format")

	// ErrMissingCredentials is returned when no Google credentials are configured.
	ErrMissingCredentials = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
)
