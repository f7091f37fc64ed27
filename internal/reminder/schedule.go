package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ParseSweepTime parses an "HH:MM" wall-clock string.
func ParseSweepTime(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid sweep time %q: expected HH:MM: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid sweep time %q: hour must be 0-23 and minute 0-59", s)
	}
	return hour, minute, nil
}

// NextRunAfter returns the next wall-clock occurrence of hour:minute strictly
// after now, in now's location. Today's slot counts if it is still ahead.
func NextRunAfter(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Scheduler triggers the sweep once a day at a fixed local time.
type Scheduler struct {
	sweeper *Sweeper
	logger  *slog.Logger
	hour    int
	minute  int
}

// NewScheduler creates a daily scheduler for the sweeper.
func NewScheduler(sweeper *Sweeper, sweepTime string, logger *slog.Logger) (*Scheduler, error) {
	hour, minute, err := ParseSweepTime(sweepTime)
	if err != nil {
		return nil, err
	}
	return &Scheduler{sweeper: sweeper, logger: logger, hour: hour, minute: minute}, nil
}

// Run blocks, firing the sweep at each scheduled time until ctx is canceled.
// The timer is re-armed from the current clock after every pass, so a slow
// sweep delays the next one rather than stacking passes.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := NextRunAfter(time.Now(), s.hour, s.minute)
		s.logger.Info("next reminder sweep scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.sweeper.Run(ctx); err != nil {
			// Partial failure is already in the report and logs. The loop
			// keeps going; tomorrow's pass retries anything still due.
			s.logger.Error("reminder sweep completed with failures", "error", err)
		}
	}
}
