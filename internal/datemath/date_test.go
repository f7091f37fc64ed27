package datemath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetowish/timetowish-server/internal/errors"
)

func TestNewDate_Valid(t *testing.T) {
	d, err := NewDate(1990, time.March, 15)
	require.NoError(t, err)
	assert.Equal(t, 1990, d.Year)
	assert.Equal(t, time.March, d.Month)
	assert.Equal(t, 15, d.Day)
}

func TestNewDate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
	}{
		{"month 13", 2024, time.Month(13), 1},
		{"month 0", 2024, time.Month(0), 1},
		{"day 32", 2024, time.January, 32},
		{"day 0", 2024, time.January, 0},
		{"feb 30", 2024, time.February, 30},
		{"feb 29 in non-leap year", 2023, time.February, 29},
		{"apr 31", 2024, time.April, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDate(tt.year, tt.month, tt.day)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestNewDate_LeapDay(t *testing.T) {
	_, err := NewDate(2024, time.February, 29)
	assert.NoError(t, err, "2024 is a leap year")

	_, err = NewDate(2000, time.February, 29)
	assert.NoError(t, err, "2000 is a leap year (divisible by 400)")

	_, err = NewDate(1900, time.February, 29)
	assert.Error(t, err, "1900 is not a leap year (century, not divisible by 400)")
}

func TestDate_Compare(t *testing.T) {
	a := MustDate(2024, time.March, 15)

	assert.Equal(t, 0, a.Compare(MustDate(2024, time.March, 15)))
	assert.True(t, a.Before(MustDate(2024, time.March, 16)))
	assert.True(t, a.Before(MustDate(2024, time.April, 1)))
	assert.True(t, a.Before(MustDate(2025, time.January, 1)))
	assert.True(t, a.After(MustDate(2024, time.March, 14)))
	assert.True(t, a.After(MustDate(2023, time.December, 31)))
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a    Date
		b    Date
		want int
	}{
		{"same day", MustDate(2024, time.March, 15), MustDate(2024, time.March, 15), 0},
		{"next day", MustDate(2024, time.March, 15), MustDate(2024, time.March, 16), 1},
		{"reversed is negative", MustDate(2024, time.March, 16), MustDate(2024, time.March, 15), -1},
		{"across leap february", MustDate(2024, time.February, 28), MustDate(2024, time.March, 1), 2},
		{"across non-leap february", MustDate(2023, time.February, 28), MustDate(2023, time.March, 1), 1},
		{"full leap year", MustDate(2024, time.January, 1), MustDate(2025, time.January, 1), 366},
		{"full non-leap year", MustDate(2023, time.January, 1), MustDate(2024, time.January, 1), 365},
		{"year boundary", MustDate(2023, time.December, 31), MustDate(2024, time.January, 1), 1},
		{"decades apart", MustDate(1990, time.March, 15), MustDate(2024, time.March, 15), 12419},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestDate_AddDays(t *testing.T) {
	assert.Equal(t, MustDate(2024, time.March, 1), MustDate(2024, time.February, 29).AddDays(1))
	assert.Equal(t, MustDate(2023, time.December, 31), MustDate(2024, time.January, 1).AddDays(-1))
	assert.Equal(t, MustDate(2025, time.January, 1), MustDate(2024, time.January, 1).AddDays(366))
}

func TestDate_AddDays_RoundTrip(t *testing.T) {
	// Every offset from a fixed base must invert cleanly. Walks across two
	// leap boundaries and a century.
	base := MustDate(1999, time.December, 25)
	for n := -800; n <= 800; n++ {
		d := base.AddDays(n)
		assert.Equal(t, n, DaysBetween(base, d), "offset %d", n)
	}
}

func TestDate_TextRoundTrip(t *testing.T) {
	d := MustDate(1990, time.March, 15)

	data, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1990-03-15", string(data))

	var parsed Date
	require.NoError(t, parsed.UnmarshalText(data))
	assert.Equal(t, d, parsed)
}

func TestDate_UnmarshalText_Invalid(t *testing.T) {
	var d Date
	assert.Error(t, d.UnmarshalText([]byte("not-a-date")))
	assert.Error(t, d.UnmarshalText([]byte("2023-02-29")))
	assert.Error(t, d.UnmarshalText([]byte("2023-13-01")))
}

func TestFromTime_TruncatesTimeOfDay(t *testing.T) {
	late := time.Date(2024, time.March, 15, 23, 59, 59, 0, time.Local)
	assert.Equal(t, MustDate(2024, time.March, 15), FromTime(late))
}

func TestFormatLongDate(t *testing.T) {
	assert.Equal(t, "March 15, 1990", FormatLongDate(MustDate(1990, time.March, 15)))
	assert.Equal(t, "February 29, 2000", FormatLongDate(MustDate(2000, time.February, 29)))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 28, DaysInMonth(1900, time.February))
	assert.Equal(t, 31, DaysInMonth(2024, time.January))
	assert.Equal(t, 30, DaysInMonth(2024, time.April))
}
