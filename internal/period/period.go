package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissing is returned for empty period values.
	ErrMissing = errors.New("period is missing")
	// ErrTotal is returned for summary rows whose period contains "TOTAL".
	ErrTotal = errors.New("period is a total row")
	// ErrMalformed is returned when the value does not split into prefix-month-year.
	ErrMalformed = errors.New("period is malformed")
)

// Layout is the format used when a normalized period is written back out.
const Layout = "2006-01-02"

// Normalize parses a period value such as "MSitAE-APRIL-2022" and returns the
// last day of that month at midnight UTC.
func Normalize(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, ErrMissing
	}
	if strings.Contains(strings.ToUpper(value), "TOTAL") {
		return time.Time{}, ErrTotal
	}

	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: expected 3 parts, got %d", ErrMalformed, len(parts))
	}

	month := ParseMonth(parts[1])
	if month == 0 {
		return time.Time{}, fmt.Errorf("unknown month: %q", parts[1])
	}

	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || year < 0 {
		return time.Time{}, fmt.Errorf("invalid year: %q", parts[2])
	}
	if year < 100 {
		year += 2000
	}

	return LastDayOfMonth(year, month), nil
}

// LastDayOfMonth returns the final calendar day of the given month.
func LastDayOfMonth(year int, month time.Month) time.Time {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// ParseMonth resolves a full or three-letter English month name,
// case-insensitively. It returns 0 for unknown names.
func ParseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))

	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	return months[name]
}

// FiscalYearLabels returns labels of the form "2022-23" for every fiscal year
// starting in start through end inclusive, oldest first.
func FiscalYearLabels(start, end int) []string {
	if start > end {
		return nil
	}
	labels := make([]string, 0, end-start+1)
	for year := start; year <= end; year++ {
		labels = append(labels, FiscalYearLabel(year))
	}
	return labels
}

// FiscalYearLabel returns the label for the fiscal year starting in April of year.
func FiscalYearLabel(year int) string {
	return fmt.Sprintf("%04d-%02d", year, (year+1)%100)
}
