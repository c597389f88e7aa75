// Package reminder renders reminder messages and builds the payload posted to
// the notification endpoint.
package reminder

import (
	"strconv"
	"strings"

	"remind/pkg/models"
)

// Placeholders understood by Render.
const (
	PlaceholderName    = "{{name}}"
	PlaceholderInvoice = "{{invoice}}"
	PlaceholderAmount  = "{{amount}}"
	PlaceholderDays    = "{{days}}"
)

// DefaultTemplate is used by the endpoint when an item carries no message.
const DefaultTemplate = `Dear {{name}},

our records show that invoice {{invoice}} over {{amount}} is still open after {{days}} days.
Please arrange payment at your earliest convenience, or let us know if it has already been settled.

Kind regards`

// Values are the substitutions for one message.
type Values struct {
	Name    string
	Invoice string
	Amount  string
	Days    string
}

// Render substitutes every occurrence of each known placeholder. Unknown
// placeholders are left as they are; missing values render as empty strings.
func Render(template string, rec models.InvoiceRecord) string {
	return RenderValues(template, ValuesFor(rec))
}

// RenderValues is Render over pre-formatted values.
func RenderValues(template string, v Values) string {
	return strings.NewReplacer(
		PlaceholderName, v.Name,
		PlaceholderInvoice, v.Invoice,
		PlaceholderAmount, v.Amount,
		PlaceholderDays, v.Days,
	).Replace(template)
}

// ValuesFor formats a record for substitution.
func ValuesFor(rec models.InvoiceRecord) Values {
	v := Values{
		Name:    rec.ClientName,
		Invoice: rec.InvoiceNumber,
		Amount:  rec.Amount,
	}
	if days, ok := rec.Days(); ok {
		v.Days = strconv.Itoa(days)
	}
	return v
}
