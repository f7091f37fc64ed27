package store

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/timetowish/timetowish-server/internal/domain"
)

// Key prefixes for each entity type. Index keys share the entity prefix
// with an "idx:" marker so a prefix scan covers both.
const (
	prefixUser       = "user:"
	prefixSession    = "session:"
	prefixCollection = "collection:"
	prefixBirthday   = "birthday:"
)

// Store is the badger-backed persistence layer.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Users       *Entity[domain.User]
	Sessions    *Entity[domain.Session]
	Collections *Entity[domain.Collection]
	Birthdays   *Entity[domain.Birthday]
}

// New opens the database at path and wires up the entity accessors.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty, we log ourselves
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: logger}

	s.Users = NewEntity[domain.User](s, prefixUser).
		WithUniqueIndex("email", func(u *domain.User) string {
			return NormalizeEmail(u.Email)
		}, NormalizeEmail)

	s.Sessions = NewEntity[domain.Session](s, prefixSession).
		WithUniqueIndex("token", func(sess *domain.Session) string {
			return sess.RefreshTokenHash
		}, nil).
		WithIndex("user", func(sess *domain.Session) string {
			return sess.UserID
		})

	s.Collections = NewEntity[domain.Collection](s, prefixCollection).
		WithIndex("owner", func(c *domain.Collection) string {
			return c.OwnerID
		})

	s.Birthdays = NewEntity[domain.Birthday](s, prefixBirthday).
		WithIndex("owner", func(b *domain.Birthday) string {
			return b.OwnerID
		}).
		WithIndex("collection", func(b *domain.Birthday) string {
			return b.CollectionID
		})

	logger.Info("store opened", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}

// NormalizeEmail lowercases and trims an email address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
