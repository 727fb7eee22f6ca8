package utils

import (
	"fmt"
	"strings"
	"time"

	"assetrent-backend/internal/domain"
)

// MonthSegment is the part of an inclusive date range that falls inside one
// calendar month.
type MonthSegment struct {
	Year        int
	Month       time.Month
	DaysInMonth int
	ActiveDays  int
}

// accepted spreadsheet and form layouts, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate converts a date string in any of the layouts seen in imported
// workbooks into a domain.Date. Day-first layouts win over month-first ones
// when both would match.
func ParseDate(dateStr string) (domain.Date, error) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return domain.Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), nil
		}
	}
	return domain.Date{}, fmt.Errorf("invalid date format %q, expected yyyy-mm-dd", s)
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		// Check for leap year
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	// Months with 30 days: April, June, September, November
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// MonthSegments splits the inclusive range [start, end] at calendar month
// boundaries. Both ends count as active days.
func MonthSegments(start, end domain.Date) ([]MonthSegment, error) {
	if end.Before(start.Time) {
		return nil, fmt.Errorf("end date must be >= start date")
	}

	var segments []MonthSegment
	year, month, day := start.Year(), start.Month(), start.Day()
	for {
		dim := DaysInMonth(year, int(month))
		lastDay := dim
		if year == end.Year() && month == end.Month() {
			lastDay = end.Day()
		}
		segments = append(segments, MonthSegment{
			Year:        year,
			Month:       month,
			DaysInMonth: dim,
			ActiveDays:  lastDay - day + 1,
		})
		if year == end.Year() && month == end.Month() {
			return segments, nil
		}

		day = 1
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
}

// BillingDayIn clamps a rental's billing day to the length of the given month
// so that a billing day of 31 still falls due in shorter months.
func BillingDayIn(billingDay, year int, month time.Month) int {
	dim := DaysInMonth(year, int(month))
	if billingDay > dim {
		return dim
	}
	return billingDay
}
