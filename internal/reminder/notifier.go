package reminder

import (
	"context"
	"log/slog"

	"github.com/timetowish/timetowish-server/internal/datemath"
)

// Reminder is one "birthday tomorrow" notification handed to a Notifier.
type Reminder struct {
	// EventID uniquely identifies this notification attempt. Downstream
	// channels can use it for their own deduplication.
	EventID string `json:"event_id"`

	BirthdayID string `json:"birthday_id"`
	OwnerID    string `json:"owner_id"`

	// Name is the person whose birthday it is.
	Name string `json:"name"`
	// Email is the optional contact address on the birthday record.
	Email string `json:"email,omitempty"`

	// Occurrence is tomorrow's date, the birthday being announced.
	Occurrence datemath.Date `json:"occurrence"`
	// TurningAge is the age the person reaches on the occurrence, zero when
	// the birth year is unknown or in the future.
	TurningAge int `json:"turning_age"`
}

// Notifier delivers reminders to some channel (email, push, log).
// Implementations must be safe for concurrent use; the sweep fans out.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the structured log. It stands in for a
// real delivery channel until outbound email is wired up.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs each reminder.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, r Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "birthday reminder",
		"event_id", r.EventID,
		"birthday_id", r.BirthdayID,
		"owner_id", r.OwnerID,
		"name", r.Name,
		"occurrence", r.Occurrence.String(),
		"turning_age", r.TurningAge,
	)
	return nil
}
