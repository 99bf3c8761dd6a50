package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var ErrInvalidYearMonth = errors.New("invalid year-month")

var yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// FormatYearMonth renders the calendar month of t as "YYYY-MM".
func FormatYearMonth(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// CurrentYearMonth returns the calendar month containing now.
func CurrentYearMonth(now time.Time) string {
	return FormatYearMonth(now)
}

// ParseYearMonth validates a "YYYY-MM" string and returns the first instant
// of that month in UTC.
func ParseYearMonth(s string) (time.Time, error) {
	if !yearMonthPattern.MatchString(s) {
		return time.Time{}, ErrInvalidYearMonth
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, ErrInvalidYearMonth
	}
	return t, nil
}

// IsYearMonth reports whether s is a well-formed "YYYY-MM" value.
func IsYearMonth(s string) bool {
	_, err := ParseYearMonth(s)
	return err == nil
}

// MonthsBack returns the sequence of calendar months ending at the month of
// now, oldest first. Year rollover is handled by calendar arithmetic.
func MonthsBack(now time.Time, months int) []string {
	if months < 1 {
		months = 1
	}
	// Anchor to the first of the month so AddDate never skips a short month.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]string, 0, months)
	for i := months - 1; i >= 0; i-- {
		out = append(out, FormatYearMonth(anchor.AddDate(0, -i, 0)))
	}
	return out
}

// PreviousYearMonth returns the calendar month preceding the given "YYYY-MM".
func PreviousYearMonth(yearMonth string) (string, error) {
	t, err := ParseYearMonth(yearMonth)
	if err != nil {
		return "", err
	}
	return FormatYearMonth(t.AddDate(0, -1, 0)), nil
}
