package normalize

import (
	"strings"
	"time"
)

// Date formats seen across TISS documents and payer reports. Brazilian
// sources are day-first.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate attempts to parse a date string in multiple common formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, fmt := range dateFormats {
		if t, err := time.Parse(fmt, s); err == nil {
			return &t
		}
	}
	return nil
}

// FormatDateBR renders a parsed date as dd/mm/yyyy, or "" for nil.
func FormatDateBR(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// MonthKey returns the "mm/yyyy" billing-month label for a parsed date, or
// "" for nil. Used to bucket denial-report rows by payment month.
func MonthKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("01/2006")
}
