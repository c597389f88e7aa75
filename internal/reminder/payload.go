package reminder

import (
	"strconv"

	"remind/pkg/models"
)

// MaxItems is the number of items the endpoint accepts per request. Extra
// items are dropped by the endpoint, not rejected.
const MaxItems = 100

// Item is one reminder in the outbound request.
type Item struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Invoice string `json:"invoice"`
	Amount  string `json:"amount"`
	Days    *int   `json:"days"`
	Message string `json:"message,omitempty"`
}

// Request is the body posted to the notification endpoint.
type Request struct {
	Items []Item `json:"items"`
}

// Response is the endpoint's aggregate answer.
type Response struct {
	Success bool   `json:"success"`
	Sent    int    `json:"sent"`
	Error   string `json:"error,omitempty"`
}

// BuildRequest turns records into a single batch request. A message is
// rendered per record only when template is non-empty; otherwise the endpoint
// applies its own.
func BuildRequest(records []models.InvoiceRecord, template string) Request {
	req := Request{Items: make([]Item, 0, len(records))}
	for _, rec := range records {
		item := Item{
			Email:   rec.Email,
			Name:    rec.ClientName,
			Invoice: rec.InvoiceNumber,
			Amount:  rec.Amount,
			Days:    rec.AgeDays,
		}
		if template != "" {
			item.Message = Render(template, rec)
		}
		req.Items = append(req.Items, item)
	}
	return req
}

// RenderItem renders template for an item received by the endpoint.
func RenderItem(template string, item Item) string {
	v := Values{
		Name:    item.Name,
		Invoice: item.Invoice,
		Amount:  item.Amount,
	}
	if item.Days != nil {
		v.Days = strconv.Itoa(*item.Days)
	}
	return RenderValues(template, v)
}
