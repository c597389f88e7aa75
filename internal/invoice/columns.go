package invoice

import (
	"fmt"
	"strings"
)

// Field is a logical invoice column.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldInvoice Field = "invoice"
	FieldDate    Field = "date"
	FieldAmount  Field = "amount"
	FieldPaid    Field = "paid"
)

// Fields lists every logical field in display order.
var Fields = []Field{FieldName, FieldEmail, FieldInvoice, FieldDate, FieldAmount, FieldPaid}

// resolveOrder is the order in which fields claim headers. Specific fields go
// first so that e.g. "Invoice Date" becomes the date column rather than the
// invoice-number column.
var resolveOrder = []Field{FieldEmail, FieldDate, FieldAmount, FieldPaid, FieldInvoice, FieldName}

// candidates are matched as substrings of the normalized header.
var candidates = map[Field][]string{
	FieldEmail:   {"email", "e-mail", "mail"},
	FieldDate:    {"date", "datum", "issued"},
	FieldAmount:  {"amount", "total", "balance", "sum"},
	FieldPaid:    {"paid", "settled"},
	FieldInvoice: {"invoice", "inv", "number", "ref"},
	FieldName:    {"client", "customer", "name", "company"},
}

// legacyHeaders are the exact header names tried when a field is unmapped.
var legacyHeaders = map[Field]string{
	FieldName:    "Client",
	FieldEmail:   "Email",
	FieldInvoice: "Invoice",
	FieldDate:    "Date",
	FieldAmount:  "Amount",
	FieldPaid:    "Paid",
}

// requiredFields are reported in Unmatched when no header maps to them.
// Paid is optional: a sheet without it simply has no paid invoices.
var requiredFields = []Field{FieldName, FieldEmail, FieldInvoice, FieldDate, FieldAmount}

// ColumnMapping maps logical fields to original header strings.
type ColumnMapping struct {
	Columns   map[Field]string
	Unmatched []Field
}

// MapColumns infers which header holds each logical field. The first header in
// column order containing any of a field's candidates wins; a header already
// claimed by another field is not reused. Unmapped fields are not an error.
func MapColumns(headers []string) ColumnMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	mapping := ColumnMapping{Columns: make(map[Field]string, len(Fields))}
	claimed := make(map[int]bool, len(headers))

	for _, field := range resolveOrder {
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			if containsAny(h, candidates[field]) {
				mapping.Columns[field] = headers[i]
				claimed[i] = true
				break
			}
		}
	}

	for _, field := range requiredFields {
		if _, ok := mapping.Columns[field]; !ok {
			mapping.Unmatched = append(mapping.Unmatched, field)
		}
	}

	return mapping
}

// Header returns the header mapped to field, if any.
func (m ColumnMapping) Header(field Field) (string, bool) {
	h, ok := m.Columns[field]
	return h, ok
}

// Lookup returns the cell for field: the mapped header first, then the legacy
// exact header name, then nil.
func (m ColumnMapping) Lookup(row map[string]any, field Field) any {
	if h, ok := m.Columns[field]; ok {
		if v, ok := row[h]; ok {
			return v
		}
	}
	if v, ok := row[legacyHeaders[field]]; ok {
		return v
	}
	return nil
}

// LookupString is Lookup rendered as a trimmed display string.
func (m ColumnMapping) LookupString(row map[string]any, field Field) string {
	return CellString(m.Lookup(row, field))
}

// CellString renders a raw cell value as a trimmed string; nil is empty.
func CellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
