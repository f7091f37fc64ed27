package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/timetowish/timetowish-server/internal/calendar"
	"github.com/timetowish/timetowish-server/internal/datemath"
	"github.com/timetowish/timetowish-server/internal/domain"
	domainerrors "github.com/timetowish/timetowish-server/internal/errors"
	"github.com/timetowish/timetowish-server/internal/id"
	"github.com/timetowish/timetowish-server/internal/store"
	"github.com/timetowish/timetowish-server/internal/validation"
)

// BirthdayService manages individual birthday records.
type BirthdayService struct {
	store    *store.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewBirthdayService creates a new birthday service.
func NewBirthdayService(store *store.Store, validate *validation.Validator, logger *slog.Logger) *BirthdayService {
	return &BirthdayService{store: store, validate: validate, logger: logger}
}

// BirthdayRequest carries create and update payloads.
// BirthDate is a "YYYY-MM-DD" string on the wire.
type BirthdayRequest struct {
	CollectionID string        `json:"collection_id" validate:"required"`
	Name         string        `json:"name" validate:"required,max=100"`
	BirthDate    datemath.Date `json:"birth_date"`
	Email        string        `json:"email" validate:"omitempty,email"`
	AvatarURL    string        `json:"avatar_url" validate:"omitempty,url"`
}

func (s *BirthdayService) validateRequest(req BirthdayRequest) error {
	if err := s.validate.Validate(req); err != nil {
		return err
	}
	if req.BirthDate.IsZero() {
		return domainerrors.Validation("birth_date is required")
	}
	if req.BirthDate.After(datemath.Today()) {
		return domainerrors.Validation("birth_date cannot be in the future")
	}
	return nil
}

// ownedCollection loads a collection and checks it belongs to the user.
func (s *BirthdayService) ownedCollection(ctx context.Context, ownerID, collectionID string) error {
	collection, err := s.store.Collections.Get(ctx, collectionID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("collection not found")
		}
		return err
	}
	if !collection.IsOwnedBy(ownerID) {
		return domainerrors.NotFound("collection not found")
	}
	return nil
}

// Create adds a birthday to one of the user's collections.
func (s *BirthdayService) Create(ctx context.Context, ownerID string, req BirthdayRequest) (*domain.Birthday, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.ownedCollection(ctx, ownerID, req.CollectionID); err != nil {
		return nil, err
	}

	birthdayID, err := id.Generate("bday")
	if err != nil {
		return nil, fmt.Errorf("generate birthday ID: %w", err)
	}

	b := &domain.Birthday{
		Meta:         domain.Meta{ID: birthdayID},
		OwnerID:      ownerID,
		CollectionID: req.CollectionID,
		Name:         req.Name,
		BirthDate:    req.BirthDate,
		Email:        req.Email,
		AvatarURL:    req.AvatarURL,
	}
	b.InitTimestamps()
	b.Refresh(datemath.Today())

	if err := s.store.Birthdays.Create(ctx, b.ID, b); err != nil {
		return nil, fmt.Errorf("create birthday: %w", err)
	}

	s.logger.Info("birthday created", "birthday_id", b.ID, "owner_id", ownerID)
	return b, nil
}

// Get returns one of the user's birthdays with fresh display fields.
func (s *BirthdayService) Get(ctx context.Context, ownerID, birthdayID string) (*domain.Birthday, error) {
	b, err := s.store.Birthdays.Get(ctx, birthdayID)
	if err != nil {
		return nil, err
	}
	if !b.IsOwnedBy(ownerID) {
		return nil, domainerrors.NotFound("birthday not found")
	}
	b.Refresh(datemath.Today())
	return b, nil
}

// List returns the user's birthdays, optionally filtered to one collection,
// sorted soonest first.
func (s *BirthdayService) List(ctx context.Context, ownerID, collectionID string) ([]*domain.Birthday, error) {
	var (
		birthdays []*domain.Birthday
		err       error
	)
	if collectionID != "" {
		if err := s.ownedCollection(ctx, ownerID, collectionID); err != nil {
			return nil, err
		}
		birthdays, err = s.store.Birthdays.ListByIndex(ctx, "collection", collectionID)
	} else {
		birthdays, err = s.store.Birthdays.ListByIndex(ctx, "owner", ownerID)
	}
	if err != nil {
		return nil, err
	}

	today := datemath.Today()
	for _, b := range birthdays {
		b.Refresh(today)
	}
	sort.Slice(birthdays, func(i, j int) bool {
		if birthdays[i].RemainingDays != birthdays[j].RemainingDays {
			return birthdays[i].RemainingDays < birthdays[j].RemainingDays
		}
		return birthdays[i].Name < birthdays[j].Name
	})
	return birthdays, nil
}

// Update replaces a birthday's fields. Moving the date to a different month
// or day clears the notification guard so the new occurrence gets its own
// reminder.
func (s *BirthdayService) Update(ctx context.Context, ownerID, birthdayID string, req BirthdayRequest) (*domain.Birthday, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	b, err := s.store.Birthdays.Get(ctx, birthdayID)
	if err != nil {
		return nil, err
	}
	if !b.IsOwnedBy(ownerID) {
		return nil, domainerrors.NotFound("birthday not found")
	}

	if req.CollectionID != b.CollectionID {
		if err := s.ownedCollection(ctx, ownerID, req.CollectionID); err != nil {
			return nil, err
		}
	}

	dateMoved := req.BirthDate.Month != b.BirthDate.Month || req.BirthDate.Day != b.BirthDate.Day

	b.CollectionID = req.CollectionID
	b.Name = req.Name
	b.BirthDate = req.BirthDate
	b.Email = req.Email
	b.AvatarURL = req.AvatarURL
	if dateMoved {
		b.ClearNotification()
	}
	b.Touch()
	b.Refresh(datemath.Today())

	if err := s.store.Birthdays.Update(ctx, birthdayID, b); err != nil {
		return nil, fmt.Errorf("update birthday: %w", err)
	}
	return b, nil
}

// Delete removes one of the user's birthdays.
func (s *BirthdayService) Delete(ctx context.Context, ownerID, birthdayID string) error {
	b, err := s.store.Birthdays.Get(ctx, birthdayID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			// Deleting something already gone is fine.
			return nil
		}
		return err
	}
	if !b.IsOwnedBy(ownerID) {
		return domainerrors.NotFound("birthday not found")
	}
	return s.store.Birthdays.Delete(ctx, birthdayID)
}

// ExportCalendar renders all the user's birthdays as an ICS feed.
func (s *BirthdayService) ExportCalendar(ctx context.Context, ownerID string) ([]byte, error) {
	birthdays, err := s.store.Birthdays.ListByIndex(ctx, "owner", ownerID)
	if err != nil {
		return nil, err
	}
	return calendar.Export(birthdays, time.Now())
}
