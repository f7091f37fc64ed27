package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetowish/timetowish-server/internal/datemath"
	"github.com/timetowish/timetowish-server/internal/domain"
)

func bday(id, name string, date datemath.Date) *domain.Birthday {
	b := &domain.Birthday{Name: name, BirthDate: date}
	b.ID = id
	return b
}

func TestExport(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	birthdays := []*domain.Birthday{
		bday("bday-1", "Ada", datemath.MustDate(1990, time.March, 15)),
	}

	data, err := Export(birthdays, now)
	require.NoError(t, err)
	ics := string(data)

	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "END:VCALENDAR")
	assert.Contains(t, ics, "X-WR-CALNAME:TimeToWish Birthdays")

	// One event per year: 2023, 2024, 2025.
	assert.Equal(t, 3, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "UID:bday-1-2024@timetowish.app")
	assert.Contains(t, ics, "Ada's birthday (turns 34)")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20240315")

	// Day-before alarm on each event.
	assert.Equal(t, 3, strings.Count(ics, "BEGIN:VALARM"))
	assert.Contains(t, ics, "TRIGGER:-P1D")
}

func TestExport_SkipsYearsBeforeBirth(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	birthdays := []*domain.Birthday{
		bday("bday-new", "Newborn", datemath.MustDate(2024, time.January, 10)),
	}

	data, err := Export(birthdays, now)
	require.NoError(t, err)
	ics := string(data)

	// Only 2024 and 2025; no event for 2023.
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.NotContains(t, ics, "bday-new-2023@")
	assert.Contains(t, ics, "Newborn's birthday\r\n")
}

func TestExport_LeapDayInNonLeapYear(t *testing.T) {
	now := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)
	birthdays := []*domain.Birthday{
		bday("bday-leap", "Leap", datemath.MustDate(2000, time.February, 29)),
	}

	data, err := Export(birthdays, now)
	require.NoError(t, err)
	ics := string(data)

	// 2023 observed on Feb 28, 2024 on the real Feb 29.
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20230228")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20240229")
}

func TestExport_EmptyIsStillValid(t *testing.T) {
	data, err := Export(nil, time.Now())
	require.NoError(t, err)

	ics := string(data)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "END:VCALENDAR")
	assert.NotContains(t, ics, "VEVENT")
}
