package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/timetowish/timetowish-server/internal/domain"
	domainerrors "github.com/timetowish/timetowish-server/internal/errors"
	"github.com/timetowish/timetowish-server/internal/id"
	"github.com/timetowish/timetowish-server/internal/store"
	"github.com/timetowish/timetowish-server/internal/validation"
)

// CollectionService manages a user's birthday collections.
type CollectionService struct {
	store    *store.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(store *store.Store, validate *validation.Validator, logger *slog.Logger) *CollectionService {
	return &CollectionService{store: store, validate: validate, logger: logger}
}

// CollectionRequest carries create and update payloads.
type CollectionRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// Create adds a new collection for the user.
func (s *CollectionService) Create(ctx context.Context, ownerID string, req CollectionRequest) (*domain.Collection, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	collectionID, err := id.Generate("coll")
	if err != nil {
		return nil, fmt.Errorf("generate collection ID: %w", err)
	}

	collection := &domain.Collection{
		Meta:        domain.Meta{ID: collectionID},
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
	}
	collection.InitTimestamps()

	if err := s.store.Collections.Create(ctx, collection.ID, collection); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.logger.Info("collection created", "collection_id", collection.ID, "owner_id", ownerID)
	return collection, nil
}

// Get returns one of the user's collections.
// Another user's collection is reported as not found, not forbidden.
func (s *CollectionService) Get(ctx context.Context, ownerID, collectionID string) (*domain.Collection, error) {
	collection, err := s.store.Collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !collection.IsOwnedBy(ownerID) {
		return nil, domainerrors.NotFound("collection not found")
	}
	return collection, nil
}

// List returns the user's collections sorted by name.
func (s *CollectionService) List(ctx context.Context, ownerID string) ([]*domain.Collection, error) {
	collections, err := s.store.Collections.ListByIndex(ctx, "owner", ownerID)
	if err != nil {
		return nil, err
	}
	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name < collections[j].Name
	})
	return collections, nil
}

// Update renames or re-describes a collection.
func (s *CollectionService) Update(ctx context.Context, ownerID, collectionID string, req CollectionRequest) (*domain.Collection, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	collection, err := s.Get(ctx, ownerID, collectionID)
	if err != nil {
		return nil, err
	}

	collection.Name = req.Name
	collection.Description = req.Description
	collection.Touch()

	if err := s.store.Collections.Update(ctx, collectionID, collection); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}
	return collection, nil
}

// Delete removes a collection and every birthday in it.
func (s *CollectionService) Delete(ctx context.Context, ownerID, collectionID string) error {
	if _, err := s.Get(ctx, ownerID, collectionID); err != nil {
		return err
	}

	removed, err := s.store.DeleteBirthdaysByCollection(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("delete birthdays: %w", err)
	}
	if err := s.store.Collections.Delete(ctx, collectionID); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	s.logger.Info("collection deleted", "collection_id", collectionID, "birthdays_removed", removed)
	return nil
}
