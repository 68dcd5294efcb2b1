package utils

import (
	"time"
)

const (
	layoutDate      = "2006-01-02"
	layoutMonthYear = "January 2006"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatDate formats time to YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(layoutDate)
}

// FormatMonthYear renders a tour date the way pages show it, e.g. "April 2025".
func FormatMonthYear(t time.Time) string {
	return t.UTC().Format(layoutMonthYear)
}

