package invoice

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is spreadsheet serial day 0.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serials outside this range would overflow time arithmetic or land before the
// epoch; they are treated as unparseable.
const (
	minSerial = 0
	maxSerial = 2958465 // 9999-12-31
)

// isoLayouts are tried for string values that are not numeric.
var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, 02 Jan 2006",
}

// dmyPattern matches D/M/Y, D-M-Y and D.M.Y with a 2 or 4 digit year.
var dmyPattern = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4}|\d{2})$`)

// NormalizeDate converts a raw cell value into a calendar date (UTC midnight).
// It tries, in order: a native time.Time, a numeric spreadsheet serial, an
// ISO-like string, and a day-first D/M/Y string. It reports false when none
// applies and never panics.
func NormalizeDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return CalendarDate(v), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return NormalizeDate(*v)
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case int:
		return fromSerial(float64(v))
	case int8:
		return fromSerial(float64(v))
	case int16:
		return fromSerial(float64(v))
	case int32:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case uint:
		return fromSerial(float64(v))
	case uint8:
		return fromSerial(float64(v))
	case uint16:
		return fromSerial(float64(v))
	case uint32:
		return fromSerial(float64(v))
	case uint64:
		return fromSerial(float64(v))
	case string:
		return normalizeString(v)
	default:
		return time.Time{}, false
	}
}

func normalizeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// A bare number is a serial, never a year or a timestamp.
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(n)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CalendarDate(t), true
		}
	}

	return parseDayMonthYear(s)
}

func parseDayMonthYear(s string) (time.Time, bool) {
	m := dmyPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/02 into March; reject it instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func fromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < minSerial || serial > maxSerial {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(math.Floor(serial))), true
}

// CalendarDate drops the clock and location of t, keeping its own Y/M/D.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
