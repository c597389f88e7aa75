package reconciliation

import (
	"regexp"
	"strings"

	"remind/pkg/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Eligible reports whether a record should receive a reminder.
func Eligible(r *models.InvoiceRecord) bool {
	return r.Overdue && !r.Excluded && ValidEmail(r.Email)
}

// Record returns a pointer to the record with id, or nil.
func (s *Session) Record(id int) *models.InvoiceRecord {
	for i := range s.Records {
		if s.Records[i].ID == id {
			return &s.Records[i]
		}
	}
	return nil
}

// ToggleExcluded flips the excluded flag of one record and returns the new
// value. Unknown IDs are ignored and report found=false.
func (s *Session) ToggleExcluded(id int) (excluded bool, found bool) {
	r := s.Record(id)
	if r == nil {
		return false, false
	}
	r.Excluded = !r.Excluded
	return r.Excluded, true
}

// SetAllOverdueExcluded sets the excluded flag on every overdue record and
// returns the IDs it touched.
func (s *Session) SetAllOverdueExcluded(value bool) []int {
	var ids []int
	for i := range s.Records {
		if s.Records[i].Overdue {
			s.Records[i].Excluded = value
			ids = append(ids, s.Records[i].ID)
		}
	}
	return ids
}

// Eligible returns the records to notify: overdue, not excluded, and with a
// valid email. It is computed from the current flags on every call.
func (s *Session) Eligible() []models.InvoiceRecord {
	var out []models.InvoiceRecord
	for i := range s.Records {
		if Eligible(&s.Records[i]) {
			out = append(out, s.Records[i])
		}
	}
	return out
}

// Counts summarizes the session.
func (s *Session) Counts() Counts {
	c := Counts{Total: len(s.Records)}
	for i := range s.Records {
		r := &s.Records[i]
		if r.Overdue {
			c.Overdue++
		}
		if r.Excluded {
			c.Excluded++
		}
		if r.InvoiceDate == nil {
			c.NoDate++
		}
		if Eligible(r) {
			c.Eligible++
		}
	}
	return c
}

// Clone returns a deep copy so callers can read without holding the owner's lock.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Records = make([]models.InvoiceRecord, len(s.Records))
	copy(out.Records, s.Records)
	return &out
}
