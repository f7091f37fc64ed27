// Package datemath implements the recurring-birthday date engine: calendar
// dates, calendar-correct age arithmetic, and next-occurrence resolution.
//
// Everything here is pure. The reference date ("today") is always an explicit
// parameter so callers are deterministic and testable without touching the
// wall clock. Time-of-day never matters: a Date is a civil calendar date.
package datemath

import (
	"fmt"
	"time"

	"github.com/timetowish/timetowish-server/internal/errors"
)

// Date is a civil calendar date (year, month, day) with no time-of-day or
// zone component. The zero value is invalid; construct via NewDate, MustDate
// or FromTime.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// NewDate validates and constructs a Date.
// Returns a validation error for impossible calendar dates (month 13, Feb 30, ...).
func NewDate(year int, month time.Month, day int) (Date, error) {
	if month < time.January || month > time.December {
		return Date{}, errors.Validationf("invalid month %d", int(month))
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, errors.Validationf("invalid day %d for %s %d", day, month, year)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// MustDate is like NewDate but panics on invalid input. For tests and constants.
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime truncates a time.Time to its civil date in the time's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current civil date in local time.
// The reminder sweep calls this exactly once per pass.
func Today() Date {
	return FromTime(time.Now())
}

// Time returns the date at midnight local time.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare returns -1, 0, or +1 depending on whether d is before, equal to,
// or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return fromEpochDays(d.epochDays() + n)
}

// String returns the date in ISO 8601 form (2006-01-02).
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText encodes the date as 2006-01-02. Used by both JSON codecs.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a 2006-01-02 date and validates it.
func (d *Date) UnmarshalText(data []byte) error {
	var y, m, day int
	if _, err := fmt.Sscanf(string(data), "%d-%d-%d", &y, &m, &day); err != nil {
		return errors.Validationf("invalid date %q: expected YYYY-MM-DD", string(data))
	}
	parsed, err := NewDate(y, time.Month(m), day)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month of the given year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// DaysBetween returns the whole-day difference b - a.
// Negative when a is after b. Pure integer arithmetic on civil dates, so DST
// transitions between the two dates cannot skew the count.
func DaysBetween(a, b Date) int {
	return b.epochDays() - a.epochDays()
}

// FormatLongDate renders a date as "March 15, 1990" for display.
func FormatLongDate(d Date) string {
	return fmt.Sprintf("%s %d, %d", d.Month.String(), d.Day, d.Year)
}

// epochDays converts the date to a serial day number (days since 1970-01-01).
// Days-from-civil algorithm over the proleptic Gregorian calendar.
func (d Date) epochDays() int {
	y := d.Year
	m := int(d.Month)
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400 // [0, 399]
	var doy int
	if m > 2 {
		doy = (153*(m-3)+2)/5 + d.Day - 1
	} else {
		doy = (153*(m+9)+2)/5 + d.Day - 1
	}
	doe := yoe*365 + yoe/4 - yoe/100 + doy // [0, 146096]
	return era*146097 + doe - 719468
}

// fromEpochDays is the inverse of epochDays.
func fromEpochDays(days int) Date {
	z := days + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097                                   // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365  // [0, 399]
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100) // [0, 365]
	mp := (5*doy + 2) / 153                  // [0, 11]
	day := doy - (153*mp+2)/5 + 1            // [1, 31]
	m := mp + 3
	if m > 12 {
		m -= 12
		y++
	}
	return Date{Year: y, Month: time.Month(m), Day: day}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
