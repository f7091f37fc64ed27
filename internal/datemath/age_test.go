package datemath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth Date
		today Date
		want  Age
	}{
		{
			"exact birthday",
			MustDate(1990, time.March, 15),
			MustDate(2024, time.March, 15),
			Age{Years: 34, Months: 0, Days: 0},
		},
		{
			"day before birthday",
			MustDate(1990, time.March, 15),
			MustDate(2024, time.March, 14),
			Age{Years: 33, Months: 11, Days: 28},
		},
		{
			"day after birthday",
			MustDate(1990, time.March, 15),
			MustDate(2024, time.March, 16),
			Age{Years: 34, Months: 0, Days: 1},
		},
		{
			"month-end birth borrows leap february",
			MustDate(1990, time.January, 31),
			MustDate(2024, time.March, 30),
			// days = 30 - 31 borrows February's 29 days.
			Age{Years: 34, Months: 1, Days: 28},
		},
		{
			"month-end birth measured in short february",
			MustDate(1990, time.January, 31),
			MustDate(2023, time.February, 28),
			// days = 28 - 31 borrows January's 31 days; the month borrow
			// empties the month component.
			Age{Years: 33, Months: 0, Days: 28},
		},
		{
			"month-end birth borrows twice across february",
			MustDate(1990, time.January, 31),
			MustDate(2024, time.March, 1),
			// days = 1 - 31 stays negative after borrowing February (29),
			// so January (31) is borrowed too: Jan 31 + 30 days = Mar 1.
			Age{Years: 34, Months: 0, Days: 30},
		},
		{
			"not yet born clamps to zero",
			MustDate(1999, time.July, 1),
			MustDate(1999, time.June, 30),
			Age{},
		},
		{
			"born today",
			MustDate(2024, time.March, 15),
			MustDate(2024, time.March, 15),
			Age{},
		},
		{
			"feb 29 birth turns on feb 28 of non-leap years",
			MustDate(2000, time.February, 29),
			MustDate(2023, time.February, 28),
			Age{Years: 23, Months: 0, Days: 0},
		},
		{
			"feb 29 birth the day after its non-leap occurrence",
			MustDate(2000, time.February, 29),
			MustDate(2023, time.March, 1),
			Age{Years: 23, Months: 0, Days: 1},
		},
		{
			"dec 31 birth on jan 1",
			MustDate(1985, time.December, 31),
			MustDate(2024, time.January, 1),
			Age{Years: 38, Months: 0, Days: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.birth, tt.today))
		})
	}
}

func TestAgeAt_ComponentsStayInRange(t *testing.T) {
	// Walk reference dates through several years including the birth date
	// itself. Borrow arithmetic keeps every component non-negative, months
	// under 12, and days strictly below the longest borrowable month.
	for _, birth := range []Date{
		MustDate(2000, time.February, 29),
		MustDate(1990, time.January, 31),
		MustDate(1985, time.December, 31),
	} {
		today := MustDate(1999, time.June, 1)
		for i := 0; i < 365*3; i++ {
			age := AgeAt(birth, today)
			assert.GreaterOrEqual(t, age.Years, 0, "birth=%s today=%s", birth, today)
			assert.GreaterOrEqual(t, age.Months, 0, "birth=%s today=%s", birth, today)
			assert.GreaterOrEqual(t, age.Days, 0, "birth=%s today=%s", birth, today)
			assert.LessOrEqual(t, age.Months, 11, "birth=%s today=%s", birth, today)
			assert.LessOrEqual(t, age.Days, 30, "birth=%s today=%s", birth, today)
			today = today.AddDays(1)
		}
	}
}

func TestAgeAt_YearsMatchCompletedOccurrences(t *testing.T) {
	// Years must tick exactly on the resolved occurrence date, never a day
	// early or late.
	birth := MustDate(1990, time.March, 15)

	assert.Equal(t, 33, AgeAt(birth, MustDate(2024, time.March, 14)).Years)
	assert.Equal(t, 34, AgeAt(birth, MustDate(2024, time.March, 15)).Years)
	assert.Equal(t, 34, AgeAt(birth, MustDate(2025, time.March, 14)).Years)
	assert.Equal(t, 35, AgeAt(birth, MustDate(2025, time.March, 15)).Years)
}
