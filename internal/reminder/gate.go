// Package reminder implements the daily birthday reminder sweep.
//
// A reminder fires exactly once per occurrence: on the day before the
// birthday's next occurrence. The LastNotifiedYear guard on each record keeps
// repeated or overlapping sweeps from double-sending, and because the guard is
// only advanced after a notification is handed off, a crash in between
// produces a duplicate rather than a silent loss.
package reminder

import (
	"github.com/timetowish/timetowish-server/internal/datemath"
	"github.com/timetowish/timetowish-server/internal/domain"
)

// Decision is the outcome of evaluating one birthday against the gate.
type Decision struct {
	// Notify reports whether a reminder should be emitted now.
	Notify bool
	// OccurrenceYear is the calendar year of the upcoming occurrence. Set
	// whenever the occurrence is tomorrow, even if the guard suppressed the
	// notification.
	OccurrenceYear int
}

// Evaluate decides whether a reminder is due for the birthday on the given
// day. Due means the next occurrence is exactly tomorrow and no reminder has
// been recorded for that occurrence's year yet.
func Evaluate(b *domain.Birthday, today datemath.Date) Decision {
	if b.BirthDate.IsZero() {
		return Decision{}
	}
	if b.DaysUntil(today) != 1 {
		return Decision{}
	}

	year := b.NextOccurrence(today).Year
	return Decision{
		Notify:         !b.WasNotifiedFor(year),
		OccurrenceYear: year,
	}
}
