package history

// dates.go parses the date formats found in the log tables.
//
// Timestamps were written by different tools over the years: ISO dates,
// slash dates, RFC 3339 strings from the API and spreadsheet exports with
// times attached. ParseDate tries each layout in turn and never fails loudly.

import (
	"strings"
	"time"
)

// DateKeyLayout is the normalized day format used for range filtering.
const DateKeyLayout = "2006-01-02"

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02", "2006/01/02", "2006/1/2", "2006.01.02",
	"1/2/2006", "01/02/2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
	"2006年1月2日",
}

// ParseDate parses s using the known layouts. The second result is false when
// s is empty or matches no layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateKey returns the YYYY-MM-DD day of s, or "" when s cannot be parsed.
func DateKey(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(DateKeyLayout)
}

// IsDateKey reports whether s is a valid YYYY-MM-DD string.
func IsDateKey(s string) bool {
	if len(s) != len(DateKeyLayout) {
		return false
	}
	_, err := time.Parse(DateKeyLayout, s)
	return err == nil
}
