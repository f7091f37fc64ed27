package domain

import (
	"github.com/timetowish/timetowish-server/internal/datemath"
)

// Birthday is one tracked birthday inside a collection.
//
// BirthDate is the source of truth. Age and RemainingDays are display caches
// recomputed on every create and update; read paths that care about
// correctness recompute them from BirthDate and the current date instead of
// trusting the stored copy.
type Birthday struct {
	Meta
	OwnerID      string        `json:"owner_id"`
	CollectionID string        `json:"collection_id"`
	Name         string        `json:"name"`
	BirthDate    datemath.Date `json:"birth_date"`
	Email        string        `json:"email,omitempty"`
	AvatarURL    string        `json:"avatar_url,omitempty"`

	// Cached display fields, refreshed by Refresh.
	Age           int `json:"age"`
	RemainingDays int `json:"remaining_days"`

	// LastNotifiedYear is the occurrence year for which a "tomorrow"
	// reminder has already been emitted, or nil if never notified.
	// Monotonically non-decreasing; written only by the reminder sweep and
	// cleared when an edit changes the birth month or day.
	LastNotifiedYear *int `json:"last_notified_year,omitempty"`
}

// Refresh recomputes the cached Age and RemainingDays fields relative to the
// given reference date.
func (b *Birthday) Refresh(today datemath.Date) {
	b.Age = datemath.AgeAt(b.BirthDate, today).Years
	b.RemainingDays = datemath.DaysUntilNext(b.BirthDate, today)
}

// NextOccurrence returns the next calendar occurrence of this birthday
// relative to the given reference date.
func (b *Birthday) NextOccurrence(today datemath.Date) datemath.Date {
	return datemath.NextOccurrence(b.BirthDate, today)
}

// DaysUntil returns the whole days from the reference date until the next
// occurrence. Zero means the birthday is today.
func (b *Birthday) DaysUntil(today datemath.Date) int {
	return datemath.DaysUntilNext(b.BirthDate, today)
}

// IsOwnedBy reports whether the record belongs to the given user.
func (b *Birthday) IsOwnedBy(userID string) bool {
	return b.OwnerID == userID
}

// WasNotifiedFor reports whether a reminder has already been emitted for the
// given occurrence year.
func (b *Birthday) WasNotifiedFor(year int) bool {
	return b.LastNotifiedYear != nil && *b.LastNotifiedYear >= year
}

// ClearNotification resets the notification guard. Called when an edit moves
// the birthday to a different month or day, since the recorded guard year no
// longer corresponds to the right occurrence.
func (b *Birthday) ClearNotification() {
	b.LastNotifiedYear = nil
}
