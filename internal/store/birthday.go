package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/timetowish/timetowish-server/internal/domain"
	"github.com/timetowish/timetowish-server/internal/errors"
)

// ErrAlreadyNotified is returned by MarkNotified when the stored guard year
// already covers the requested year. Callers treat it as "someone else won".
var ErrAlreadyNotified = errors.Conflict("already notified for this occurrence year")

// MarkNotified records that a reminder was emitted for the given occurrence
// year. The read, compare, and write happen in one transaction so the guard
// only ever moves forward, even with concurrent sweeps.
func (s *Store) MarkNotified(ctx context.Context, birthdayID string, year int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixBirthday + birthdayID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get birthday: %w", err)
		}

		var b domain.Birthday
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &b)
		}); err != nil {
			return fmt.Errorf("unmarshal birthday: %w", err)
		}

		if b.LastNotifiedYear != nil && *b.LastNotifiedYear >= year {
			return ErrAlreadyNotified
		}

		b.LastNotifiedYear = &year
		data, err := json.Marshal(&b)
		if err != nil {
			return fmt.Errorf("marshal birthday: %w", err)
		}
		// Owner and collection are untouched, so no index rewrite is needed.
		return txn.Set(key, data)
	})
}

// ListAllBirthdays returns every birthday record. Used by the reminder sweep,
// which walks the whole keyspace once per day.
func (s *Store) ListAllBirthdays(ctx context.Context) ([]*domain.Birthday, error) {
	var birthdays []*domain.Birthday
	for b, err := range s.Birthdays.List(ctx) {
		if err != nil {
			return nil, err
		}
		birthdays = append(birthdays, b)
	}
	return birthdays, nil
}

// DeleteBirthdaysByCollection removes every birthday in a collection.
// Used when a collection is deleted so no orphan records remain.
func (s *Store) DeleteBirthdaysByCollection(ctx context.Context, collectionID string) (int, error) {
	birthdays, err := s.Birthdays.ListByIndex(ctx, "collection", collectionID)
	if err != nil {
		return 0, err
	}
	for _, b := range birthdays {
		if err := s.Birthdays.Delete(ctx, b.ID); err != nil {
			return 0, fmt.Errorf("delete birthday %s: %w", b.ID, err)
		}
	}
	return len(birthdays), nil
}

// DeleteSessionsByUser removes every session belonging to a user.
// Used on logout-everywhere and account deletion.
func (s *Store) DeleteSessionsByUser(ctx context.Context, userID string) (int, error) {
	sessions, err := s.Sessions.ListByIndex(ctx, "user", userID)
	if err != nil {
		return 0, err
	}
	for _, sess := range sessions {
		if err := s.Sessions.Delete(ctx, sess.ID); err != nil {
			return 0, fmt.Errorf("delete session %s: %w", sess.ID, err)
		}
	}
	return len(sessions), nil
}

// DeleteExpiredSessions removes sessions whose expiry has passed.
// Called periodically by the session cleanup job.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	var expired []string
	for sess, err := range s.Sessions.List(ctx) {
		if err != nil {
			return 0, err
		}
		if sess.IsExpired() {
			expired = append(expired, sess.ID)
		}
	}
	for _, id := range expired {
		if err := s.Sessions.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return len(expired), nil
}
