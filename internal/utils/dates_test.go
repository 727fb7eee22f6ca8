package utils

import (
	"testing"
	"time"

	"assetrent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("ISO date", func(t *testing.T) {
		date, err := ParseDate("2024-01-15")
		assert.NoError(t, err)
		assert.Equal(t, 2024, date.Year())
		assert.Equal(t, time.January, date.Month())
		assert.Equal(t, 15, date.Day())
	})

	t.Run("Day first with slashes", func(t *testing.T) {
		date, err := ParseDate("05/03/2024")
		assert.NoError(t, err)
		assert.Equal(t, "2024-03-05", date.String())
	})

	t.Run("Month name", func(t *testing.T) {
		date, err := ParseDate("7 Feb 2023")
		assert.NoError(t, err)
		assert.Equal(t, "2023-02-07", date.String())
	})

	t.Run("Timestamp keeps the day", func(t *testing.T) {
		date, err := ParseDate("2024-06-30 18:45:00")
		assert.NoError(t, err)
		assert.Equal(t, "2024-06-30", date.String())
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("15.01.2024")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date format")
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseDate("  ")
		assert.Error(t, err)
	})
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year     int
		month    int
		expected int
	}{
		{2024, 1, 31},  // January
		{2024, 2, 29},  // February (leap year)
		{2023, 2, 28},  // February (non-leap year)
		{2024, 4, 30},  // April
		{2024, 6, 30},  // June
		{2024, 9, 30},  // September
		{2024, 11, 30}, // November
		{2024, 12, 31}, // December
		{2000, 2, 29},  // Leap year (divisible by 400)
		{1900, 2, 28},  // Not a leap year (divisible by 100 but not 400)
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysInMonth(tt.year, tt.month))
		})
	}
}

func TestMonthSegments(t *testing.T) {
	t.Run("Single month", func(t *testing.T) {
		segs, err := MonthSegments(domain.NewDate(2024, time.March, 1), domain.NewDate(2024, time.March, 31))
		require.NoError(t, err)
		require.Len(t, segs, 1)
		assert.Equal(t, MonthSegment{Year: 2024, Month: time.March, DaysInMonth: 31, ActiveDays: 31}, segs[0])
	})

	t.Run("Crosses leap February", func(t *testing.T) {
		segs, err := MonthSegments(domain.NewDate(2024, time.January, 20), domain.NewDate(2024, time.February, 10))
		require.NoError(t, err)
		require.Len(t, segs, 2)
		assert.Equal(t, 12, segs[0].ActiveDays)
		assert.Equal(t, 31, segs[0].DaysInMonth)
		assert.Equal(t, 10, segs[1].ActiveDays)
		assert.Equal(t, 29, segs[1].DaysInMonth)
	})

	t.Run("Crosses year end", func(t *testing.T) {
		segs, err := MonthSegments(domain.NewDate(2023, time.November, 30), domain.NewDate(2024, time.January, 2))
		require.NoError(t, err)
		require.Len(t, segs, 3)
		assert.Equal(t, 1, segs[0].ActiveDays)
		assert.Equal(t, 31, segs[1].ActiveDays)
		assert.Equal(t, time.December, segs[1].Month)
		assert.Equal(t, 2024, segs[2].Year)
		assert.Equal(t, 2, segs[2].ActiveDays)
	})

	t.Run("Same day", func(t *testing.T) {
		segs, err := MonthSegments(domain.NewDate(2024, time.May, 9), domain.NewDate(2024, time.May, 9))
		require.NoError(t, err)
		require.Len(t, segs, 1)
		assert.Equal(t, 1, segs[0].ActiveDays)
	})

	t.Run("End before start", func(t *testing.T) {
		_, err := MonthSegments(domain.NewDate(2024, time.May, 9), domain.NewDate(2024, time.May, 8))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "end date must be >= start date")
	})
}

func TestBillingDayIn(t *testing.T) {
	assert.Equal(t, 29, BillingDayIn(31, 2024, time.February))
	assert.Equal(t, 30, BillingDayIn(31, 2024, time.April))
	assert.Equal(t, 15, BillingDayIn(15, 2024, time.February))
}
