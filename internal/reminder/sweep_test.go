package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetowish/timetowish-server/internal/datemath"
	"github.com/timetowish/timetowish-server/internal/domain"
	"github.com/timetowish/timetowish-server/internal/store"
)

// fakeStorage is an in-memory Storage with the same guard semantics as the
// real store.
type fakeStorage struct {
	mu        sync.Mutex
	birthdays map[string]*domain.Birthday
	listErr   error
	markErr   error
}

func newFakeStorage(birthdays ...*domain.Birthday) *fakeStorage {
	s := &fakeStorage{birthdays: make(map[string]*domain.Birthday)}
	for _, b := range birthdays {
		s.birthdays[b.ID] = b
	}
	return s
}

func (s *fakeStorage) ListAllBirthdays(ctx context.Context) ([]*domain.Birthday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*domain.Birthday, 0, len(s.birthdays))
	for _, b := range s.birthdays {
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (s *fakeStorage) MarkNotified(ctx context.Context, birthdayID string, year int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	b, ok := s.birthdays[birthdayID]
	if !ok {
		return errors.New("not found")
	}
	if b.LastNotifiedYear != nil && *b.LastNotifiedYear >= year {
		return store.ErrAlreadyNotified
	}
	b.LastNotifiedYear = &year
	return nil
}

func (s *fakeStorage) notifiedYear(id string) *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.birthdays[id].LastNotifiedYear
}

// recordingNotifier captures reminders and can fail selected birthdays.
type recordingNotifier struct {
	mu        sync.Mutex
	reminders []Reminder
	failIDs   map[string]error
}

func (n *recordingNotifier) Notify(ctx context.Context, r Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failIDs[r.BirthdayID]; ok {
		return err
	}
	n.reminders = append(n.reminders, r)
	return nil
}

func (n *recordingNotifier) sent() []Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Reminder(nil), n.reminders...)
}

func testSweeper(s Storage, n Notifier, opts ...Option) *Sweeper {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSweeper(s, n, logger, opts...)
}

func birthday(id string, birth datemath.Date) *domain.Birthday {
	b := &domain.Birthday{
		OwnerID:   "user-1",
		Name:      "Person " + id,
		BirthDate: birth,
	}
	b.ID = id
	return b
}

func TestSweep_NotifiesDueRecords(t *testing.T) {
	today := datemath.MustDate(2024, time.March, 14)
	storage := newFakeStorage(
		birthday("bday-due", datemath.MustDate(1990, time.March, 15)),
		birthday("bday-today", datemath.MustDate(1990, time.March, 14)),
		birthday("bday-later", datemath.MustDate(1990, time.June, 1)),
	)
	notifier := &recordingNotifier{}

	report, err := testSweeper(storage, notifier).RunAt(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 0, report.Suppressed)
	assert.Equal(t, 0, report.Failed())

	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "bday-due", sent[0].BirthdayID)
	assert.Equal(t, datemath.MustDate(2024, time.March, 15), sent[0].Occurrence)
	assert.Equal(t, 34, sent[0].TurningAge)
	assert.NotEmpty(t, sent[0].EventID)

	require.NotNil(t, storage.notifiedYear("bday-due"))
	assert.Equal(t, 2024, *storage.notifiedYear("bday-due"))
	assert.Nil(t, storage.notifiedYear("bday-today"))
}

func TestSweep_SecondPassSameDayIsSuppressed(t *testing.T) {
	today := datemath.MustDate(2024, time.March, 14)
	storage := newFakeStorage(birthday("bday-1", datemath.MustDate(1990, time.March, 15)))
	notifier := &recordingNotifier{}
	sweeper := testSweeper(storage, notifier)

	report, err := sweeper.RunAt(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notified)

	// A second pass on the same day emits nothing.
	report, err = sweeper.RunAt(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Notified)
	assert.Equal(t, 1, report.Suppressed)
	assert.Len(t, notifier.sent(), 1)
}

func TestSweep_NextYearFiresAgain(t *testing.T) {
	storage := newFakeStorage(birthday("bday-1", datemath.MustDate(1990, time.March, 15)))
	notifier := &recordingNotifier{}
	sweeper := testSweeper(storage, notifier)

	_, err := sweeper.RunAt(context.Background(), datemath.MustDate(2024, time.March, 14))
	require.NoError(t, err)

	report, err := sweeper.RunAt(context.Background(), datemath.MustDate(2025, time.March, 14))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 2025, *storage.notifiedYear("bday-1"))
	assert.Len(t, notifier.sent(), 2)
}

func TestSweep_FailureIsolation(t *testing.T) {
	today := datemath.MustDate(2024, time.March, 14)
	storage := newFakeStorage(
		birthday("bday-ok", datemath.MustDate(1990, time.March, 15)),
		birthday("bday-broken", datemath.MustDate(1985, time.March, 15)),
	)
	notifier := &recordingNotifier{
		failIDs: map[string]error{"bday-broken": errors.New("smtp down")},
	}

	report, err := testSweeper(storage, notifier).RunAt(context.Background(), today)

	// The pass finishes and reports the partial failure.
	require.Error(t, err)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, "bday-broken", report.Failures[0].BirthdayID)

	// The failed record keeps a clear guard so the next pass retries it.
	assert.Nil(t, storage.notifiedYear("bday-broken"))
	assert.NotNil(t, storage.notifiedYear("bday-ok"))
}

func TestSweep_ConcurrentMarkLosesQuietly(t *testing.T) {
	today := datemath.MustDate(2024, time.March, 14)
	storage := newFakeStorage(birthday("bday-1", datemath.MustDate(1990, time.March, 15)))
	storage.markErr = store.ErrAlreadyNotified
	notifier := &recordingNotifier{}

	report, err := testSweeper(storage, notifier).RunAt(context.Background(), today)

	// Losing the guard race is not a failure.
	require.NoError(t, err)
	assert.Equal(t, 0, report.Notified)
	assert.Equal(t, 1, report.Suppressed)
	assert.Equal(t, 0, report.Failed())
}

type stuckNotifier struct{}

func (stuckNotifier) Notify(ctx context.Context, r Reminder) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSweep_RecordTimeout(t *testing.T) {
	today := datemath.MustDate(2024, time.March, 14)
	storage := newFakeStorage(birthday("bday-1", datemath.MustDate(1990, time.March, 15)))

	sweeper := testSweeper(storage, stuckNotifier{}, WithRecordTimeout(20*time.Millisecond))
	report, err := sweeper.RunAt(context.Background(), today)

	require.Error(t, err)
	require.Equal(t, 1, report.Failed())
	assert.ErrorIs(t, report.Failures[0].Err, context.DeadlineExceeded)
	assert.Nil(t, storage.notifiedYear("bday-1"))
}

func TestSweep_ListFailure(t *testing.T) {
	storage := newFakeStorage()
	storage.listErr = errors.New("disk gone")

	_, err := testSweeper(storage, &recordingNotifier{}).Run(context.Background())
	assert.Error(t, err)
}

func TestSweep_LeapDayObservedFeb28(t *testing.T) {
	storage := newFakeStorage(birthday("bday-leap", datemath.MustDate(2000, time.February, 29)))
	notifier := &recordingNotifier{}
	sweeper := testSweeper(storage, notifier)

	// Non-leap year: observed Feb 28, so due on Feb 27.
	report, err := sweeper.RunAt(context.Background(), datemath.MustDate(2023, time.February, 27))
	require.NoError(t, err)
	require.Equal(t, 1, report.Notified)
	assert.Equal(t, datemath.MustDate(2023, time.February, 28), notifier.sent()[0].Occurrence)

	// Leap year: real Feb 29, due on Feb 28.
	report, err = sweeper.RunAt(context.Background(), datemath.MustDate(2024, time.February, 28))
	require.NoError(t, err)
	require.Equal(t, 1, report.Notified)
	assert.Equal(t, datemath.MustDate(2024, time.February, 29), notifier.sent()[1].Occurrence)
}

func TestSweep_ManyRecordsBoundedParallelism(t *testing.T) {
	today := datemath.MustDate(2024, time.March, 14)
	var birthdays []*domain.Birthday
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		birthdays = append(birthdays, birthday("bday-"+id, datemath.MustDate(1990, time.March, 15)))
	}
	storage := newFakeStorage(birthdays...)
	notifier := &recordingNotifier{}

	report, err := testSweeper(storage, notifier, WithParallelism(3)).RunAt(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 10, report.Notified)
	assert.Len(t, notifier.sent(), 10)
}
