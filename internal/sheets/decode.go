// Package sheets reads invoice spreadsheets (xlsx, csv, Google Sheets) into
// tables and writes the overdue export.
package sheets

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"remind/internal/reconciliation"
)

// Decode reads a spreadsheet file into a table, choosing the decoder from the
// file extension.
func Decode(name string, r io.Reader) (reconciliation.Table, error) {
	const op = "Decode"

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		t, err := DecodeXLSX(r)
		if err != nil {
			return reconciliation.Table{}, fmt.Errorf("%s: %w", op, err)
		}
		return t, nil
	case ".csv", ".txt":
		t, err := DecodeCSV(r)
		if err != nil {
			return reconciliation.Table{}, fmt.Errorf("%s: %w", op, err)
		}
		return t, nil
	default:
		return reconciliation.Table{}, fmt.Errorf("%s: %s: %w", op, name, ErrUnsupportedFormat)
	}
}
