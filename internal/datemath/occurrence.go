package datemath

import "time"

// OccurrenceInYear maps a birth date's month/day onto the given year.
//
// Leap-day rule: a Feb 29 birth date observes its occurrence on Feb 28 in
// non-leap years. The alternative Mar 1 policy would shift every non-leap
// countdown by one day; Feb 28 is the convention used throughout this
// codebase and its tests.
func OccurrenceInYear(birth Date, year int) Date {
	day := birth.Day
	if birth.Month == time.February && birth.Day == 29 && !IsLeapYear(year) {
		day = 28
	}
	return Date{Year: year, Month: birth.Month, Day: day}
}

// NextOccurrence resolves the next calendar occurrence of a recurring birth
// date relative to today. If today's occurrence is today, it is returned
// as-is (0 days away); only strictly-passed occurrences roll to next year.
func NextOccurrence(birth, today Date) Date {
	occ := OccurrenceInYear(birth, today.Year)
	if occ.Before(today) {
		occ = OccurrenceInYear(birth, today.Year+1)
	}
	return occ
}

// DaysUntilNext returns the number of whole days from today until the next
// occurrence of the birth date. Always in [0, 366]: 0 means the occurrence
// is today, 1 means tomorrow (the reminder trigger).
func DaysUntilNext(birth, today Date) int {
	return DaysBetween(today, NextOccurrence(birth, today))
}
