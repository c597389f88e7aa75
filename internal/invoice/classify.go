package invoice

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultThresholdDays applies when no usable threshold is configured.
const DefaultThresholdDays = 30

// Classification is the derived status of one row.
type Classification struct {
	AgeDays *int
	Overdue bool
}

// Classify computes the age of an invoice in calendar days relative to today
// and whether it is overdue. A nil date is never overdue.
func Classify(invoiceDate *time.Time, paidFlag string, thresholdDays int, today time.Time) Classification {
	if invoiceDate == nil {
		return Classification{}
	}
	age := DaysBetween(*invoiceDate, today)
	return Classification{
		AgeDays: &age,
		Overdue: age > thresholdDays && !IsAffirmative(paidFlag),
	}
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of calendar days from -> to, ignoring clock
// time and location.
func DaysBetween(from, to time.Time) int {
	a := CalendarDate(from).Unix() / secondsPerDay
	b := CalendarDate(to).Unix() / secondsPerDay
	return int(b - a)
}

// IsAffirmative reports whether a paid flag means "paid": the trimmed,
// lower-cased value starts with "y" ("yes", "Y").
func IsAffirmative(flag string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(flag)), "y")
}

// ParseThreshold parses a threshold in days, falling back to
// DefaultThresholdDays when raw is empty, non-numeric, or negative.
func ParseThreshold(raw string) int {
	n, err := parseThreshold(raw)
	if err != nil {
		return DefaultThresholdDays
	}
	return n
}

// ValidateThreshold reports why raw would fall back to the default. An empty
// value is not an error.
func ValidateThreshold(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	_, err := parseThreshold(raw)
	return err
}

func parseThreshold(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultThresholdDays, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return 0, NewValidationError("threshold", raw, "not a number, using default of 30 days")
		}
		n = int(f)
	}
	if n < 0 {
		return 0, NewValidationError("threshold", raw, "negative, using default of 30 days")
	}
	return n, nil
}
