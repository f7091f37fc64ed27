// Package calendar renders a user's birthdays as an iCalendar feed.
package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/timetowish/timetowish-server/internal/datemath"
	"github.com/timetowish/timetowish-server/internal/domain"
)

const (
	productID    = "-//TimeToWish//TimeToWish Server//EN"
	calendarName = "TimeToWish Birthdays"
	uidDomain    = "timetowish.app"

	// Day-before display alarm, matching the reminder sweep.
	alarmTrigger = "-P1D"
)

// Export renders the birthdays as an ICS feed. Each birthday gets events for
// last year, this year and next year so calendar clients can scroll without
// re-syncing. Events are never generated before the person was born, and
// Feb 29 births are placed on Feb 28 in non-leap years.
func Export(birthdays []*domain.Birthday, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText("X-WR-CALNAME", calendarName)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	dtStamp := ical.NewProp(ical.PropDateTimeStamp)
	dtStamp.SetDateTime(now.UTC())

	currentYear := now.Year()
	targetYears := []int{currentYear - 1, currentYear, currentYear + 1}

	for _, b := range birthdays {
		if b.BirthDate.IsZero() {
			continue
		}

		for _, year := range targetYears {
			if year < b.BirthDate.Year {
				continue
			}

			occurrence := datemath.OccurrenceInYear(b.BirthDate, year)
			age := year - b.BirthDate.Year
			summary := fmt.Sprintf("%s's birthday", b.Name)
			if age > 0 {
				summary = fmt.Sprintf("%s's birthday (turns %d)", b.Name, age)
			}

			event := ical.NewEvent()
			event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%d@%s", b.ID, year, uidDomain))
			event.Props.SetText(ical.PropSummary, summary)
			event.Props.Set(dtStamp)

			dtStart := ical.NewProp(ical.PropDateTimeStart)
			dtStart.SetDate(occurrence.Time())
			event.Props.Set(dtStart)

			addAlarm(event, summary)
			cal.Children = append(cal.Children, event.Component)
		}
	}

	// A calendar with zero components is invalid, so pad an empty feed with
	// a stub event-free VCALENDAR by encoding manually.
	if len(cal.Children) == 0 {
		var buf bytes.Buffer
		buf.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + productID + "\r\nEND:VCALENDAR\r\n")
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// addAlarm appends a DISPLAY alarm firing the day before the event.
func addAlarm(event *ical.Event, description string) {
	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, description)

	// Set the trigger manually to avoid an implicit VALUE=TEXT param.
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = alarmTrigger
	alarm.Props.Set(trigger)

	event.Children = append(event.Children, alarm)
}
