// Package invoice holds the overdue-classification rules applied to imported
// invoice rows.
//
// The package is pure: no I/O, no shared state. It provides
//   - column mapping: which spreadsheet header holds which logical field
//   - date normalization: native dates, spreadsheet serials, and date strings
//   - classification: age in days and the overdue flag for one row
//
// Overdue rule:
//
//	overdue = ageDays != nil && ageDays > threshold && !IsAffirmative(paid)
//
// ageDays is a calendar-day difference, so results are deterministic for a
// fixed "today".
package invoice
