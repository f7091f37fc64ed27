package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/timetowish/timetowish-server/internal/datemath"
	"github.com/timetowish/timetowish-server/internal/domain"
	"github.com/timetowish/timetowish-server/internal/errors"
	"github.com/timetowish/timetowish-server/internal/store"
)

const (
	defaultRecordTimeout = 10 * time.Second
	defaultParallelism   = 8
)

// Storage is the slice of the store the sweep needs.
type Storage interface {
	ListAllBirthdays(ctx context.Context) ([]*domain.Birthday, error)
	MarkNotified(ctx context.Context, birthdayID string, year int) error
}

// Failure records one birthday the sweep could not process.
type Failure struct {
	BirthdayID string
	Err        error
}

// Report summarizes one sweep pass.
type Report struct {
	// Today is the reference date the whole pass was evaluated against.
	Today datemath.Date

	Checked    int // records examined
	Due        int // records whose occurrence is tomorrow
	Notified   int // reminders emitted and recorded
	Suppressed int // due records skipped by the notification guard
	Failures   []Failure
}

// Failed reports the number of records that errored.
func (r Report) Failed() int {
	return len(r.Failures)
}

// Err returns the aggregated failure, or nil if every record succeeded.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("birthday %s: %w", f.BirthdayID, f.Err))
	}
	return errors.Join(errs...)
}

// Sweeper runs the daily reminder pass over all birthday records.
type Sweeper struct {
	storage       Storage
	notifier      Notifier
	logger        *slog.Logger
	recordTimeout time.Duration
	parallelism   int
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithRecordTimeout bounds the store and notifier work for one record.
func WithRecordTimeout(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.recordTimeout = d
		}
	}
}

// WithParallelism sets how many records are processed concurrently.
func WithParallelism(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// NewSweeper creates a sweeper over the given storage and notifier.
func NewSweeper(storage Storage, notifier Notifier, logger *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		storage:       storage,
		notifier:      notifier,
		logger:        logger,
		recordTimeout: defaultRecordTimeout,
		parallelism:   defaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one sweep pass against the current date.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	return s.RunAt(ctx, datemath.Today())
}

// RunAt executes one sweep pass with a fixed reference date. The date is
// captured once so a pass that straddles midnight stays consistent; records
// missed because of the boundary are picked up by the next pass.
//
// One record failing never aborts the pass. Each record gets its own timeout
// and its error lands in the report, while the rest of the pass continues.
func (s *Sweeper) RunAt(ctx context.Context, today datemath.Date) (Report, error) {
	report := Report{Today: today}

	birthdays, err := s.storage.ListAllBirthdays(ctx)
	if err != nil {
		return report, fmt.Errorf("list birthdays: %w", err)
	}
	report.Checked = len(birthdays)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for _, b := range birthdays {
		decision := Evaluate(b, today)
		if decision.OccurrenceYear == 0 {
			continue
		}

		mu.Lock()
		report.Due++
		if !decision.Notify {
			report.Suppressed++
		}
		mu.Unlock()

		if !decision.Notify {
			continue
		}

		g.Go(func() error {
			outcome := s.processRecord(gctx, b, today, decision.OccurrenceYear)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case outcome == nil:
				report.Notified++
			case errors.Is(outcome, store.ErrAlreadyNotified):
				// A concurrent sweep got there first.
				report.Suppressed++
			default:
				report.Failures = append(report.Failures, Failure{BirthdayID: b.ID, Err: outcome})
			}
			// Record failures are isolated, never fail the group.
			return nil
		})
	}

	// The only group error would come from gctx, and workers swallow their
	// own failures, so Wait is just a barrier here.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	s.logger.Info("reminder sweep finished",
		"today", today.String(),
		"checked", report.Checked,
		"due", report.Due,
		"notified", report.Notified,
		"suppressed", report.Suppressed,
		"failed", report.Failed(),
	)
	return report, report.Err()
}

// processRecord notifies and then records the guard for one due birthday.
// Notify-then-mark means a crash between the two steps causes a duplicate
// next pass instead of a lost reminder.
func (s *Sweeper) processRecord(ctx context.Context, b *domain.Birthday, today datemath.Date, year int) error {
	recCtx, cancel := context.WithTimeout(ctx, s.recordTimeout)
	defer cancel()

	occurrence := b.NextOccurrence(today)
	r := Reminder{
		EventID:    uuid.NewString(),
		BirthdayID: b.ID,
		OwnerID:    b.OwnerID,
		Name:       b.Name,
		Email:      b.Email,
		Occurrence: occurrence,
		TurningAge: datemath.AgeAt(b.BirthDate, occurrence).Years,
	}

	if err := s.notifier.Notify(recCtx, r); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := s.storage.MarkNotified(recCtx, b.ID, year); err != nil {
		if errors.Is(err, store.ErrAlreadyNotified) {
			return store.ErrAlreadyNotified
		}
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}
