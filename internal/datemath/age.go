package datemath

import "time"

// Age is a calendar-correct elapsed age in whole years, months and days.
// Components are never negative.
type Age struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// AgeAt computes the age at the reference date for someone born on birth.
//
// Years counts completed occurrences, so it agrees with NextOccurrence
// semantics: a Feb 29 birth turns N on Feb 28 of non-leap years. Months and
// days measure the remainder since the most recent occurrence with borrow
// arithmetic: subtract the components, then borrow real calendar month
// lengths into the day count until it is non-negative. Month-end births
// borrow the short months they straddle (Jan 31 measured on Mar 1 of a leap
// year is 0 months 30 days, having borrowed both February and January).
//
// A birth date after the reference date clamps to zero rather than erroring;
// record creation rejects future dates before this is ever reached.
func AgeAt(birth, today Date) Age {
	if birth.After(today) {
		return Age{}
	}

	// Completed occurrences determine years.
	years := today.Year - birth.Year
	if OccurrenceInYear(birth, today.Year).After(today) {
		years--
	}

	last := OccurrenceInYear(birth, birth.Year+years)
	months := (today.Year-last.Year)*12 + int(today.Month) - int(last.Month)
	days := today.Day - last.Day

	borrowYear, borrowMonth := today.Year, today.Month
	for days < 0 {
		borrowYear, borrowMonth = previousMonth(borrowYear, borrowMonth)
		days += DaysInMonth(borrowYear, borrowMonth)
		months--
	}

	// A Feb 29 birth measured on Feb 28 of the next leap year sits one day
	// short of its true occurrence, leaving a 12-month remainder. Re-borrow
	// against the actual birth day so the remainder stays under a year.
	if months == 12 {
		months = 11
		prevYear, prevMonth := previousMonth(today.Year, today.Month)
		days = today.Day - birth.Day + DaysInMonth(prevYear, prevMonth)
	}

	return Age{Years: years, Months: months, Days: days}
}

// previousMonth steps back one calendar month.
func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
