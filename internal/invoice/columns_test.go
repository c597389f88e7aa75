package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapColumnsOrderStable(t *testing.T) {
	m := MapColumns([]string{"Invoice Date", "Client Name", "E-mail"})

	assert.Equal(t, "Invoice Date", m.Columns[FieldDate])
	assert.Equal(t, "Client Name", m.Columns[FieldName])
	assert.Equal(t, "E-mail", m.Columns[FieldEmail])
	_, ok := m.Header(FieldInvoice)
	assert.False(t, ok, "Invoice Date must not double as the invoice number column")
	assert.ElementsMatch(t, []Field{FieldInvoice, FieldAmount}, m.Unmatched)
}

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[Field]string
	}{
		{
			"Legacy",
			[]string{"Client", "Email", "Invoice", "Date", "Amount", "Paid"},
			map[Field]string{
				FieldName: "Client", FieldEmail: "Email", FieldInvoice: "Invoice",
				FieldDate: "Date", FieldAmount: "Amount", FieldPaid: "Paid",
			},
		},
		{
			"CaseAndWhitespace",
			[]string{"  CUSTOMER ", "Mail Address", "Inv #", "Issued On", "TOTAL due", "Settled?"},
			map[Field]string{
				FieldName: "  CUSTOMER ", FieldEmail: "Mail Address", FieldInvoice: "Inv #",
				FieldDate: "Issued On", FieldAmount: "TOTAL due", FieldPaid: "Settled?",
			},
		},
		{
			"FirstMatchWins",
			[]string{"Email", "Backup email", "Due date", "Invoice date"},
			map[Field]string{FieldEmail: "Email", FieldDate: "Due date", FieldInvoice: "Invoice date"},
		},
		{
			// A status column holds words like "Paid" that are not yes/no flags.
			"StatusIsNotPaidFlag",
			[]string{"Client", "Email", "Invoice", "Date", "Amount", "Status"},
			map[Field]string{
				FieldName: "Client", FieldEmail: "Email", FieldInvoice: "Invoice",
				FieldDate: "Date", FieldAmount: "Amount",
			},
		},
		{
			"NothingMatches",
			[]string{"foo", "bar", ""},
			map[Field]string{},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := MapColumns(test.headers)
			assert.Equal(t, test.want, m.Columns)
		})
	}
}

func TestMapColumnsUnmatched(t *testing.T) {
	m := MapColumns(nil)
	assert.Equal(t, []Field{FieldName, FieldEmail, FieldInvoice, FieldDate, FieldAmount}, m.Unmatched)
	assert.Empty(t, m.Columns)
}

func TestLookupFallsBackToLegacyHeader(t *testing.T) {
	m := MapColumns([]string{"Customer"})
	row := map[string]any{"Customer": " ACME ", "Email": "billing@acme.test", "Amount": 12.5}

	assert.Equal(t, "ACME", m.LookupString(row, FieldName))
	assert.Equal(t, "billing@acme.test", m.LookupString(row, FieldEmail))
	assert.Equal(t, "12.5", m.LookupString(row, FieldAmount))
	assert.Equal(t, "", m.LookupString(row, FieldInvoice))
	assert.Nil(t, m.Lookup(row, FieldPaid))
}
