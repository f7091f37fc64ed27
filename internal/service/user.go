package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/timetowish/timetowish-server/internal/auth"
	"github.com/timetowish/timetowish-server/internal/domain"
	domainerrors "github.com/timetowish/timetowish-server/internal/errors"
	"github.com/timetowish/timetowish-server/internal/reminder"
	"github.com/timetowish/timetowish-server/internal/store"
	"github.com/timetowish/timetowish-server/internal/validation"
)

// UserService handles profile reads and updates.
type UserService struct {
	store    *store.Store
	sessions *SessionService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewUserService creates a new user profile service.
func NewUserService(
	store *store.Store,
	sessions *SessionService,
	validate *validation.Validator,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		store:    store,
		sessions: sessions,
		validate: validate,
		logger:   logger,
	}
}

// UpdateProfileRequest carries a partial profile update. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
	About       *string `json:"about" validate:"omitempty,max=500"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	State       *string `json:"state" validate:"omitempty,max=100"`
	Country     *string `json:"country" validate:"omitempty,max=100"`

	NotificationChannels *[]domain.NotificationChannel `json:"notification_channels" validate:"omitempty,dive,oneof=email sms push"`
	ReminderTime         *string                       `json:"reminder_time"`
	Theme                *domain.ThemePreference       `json:"theme" validate:"omitempty,oneof=light dark system"`
}

// ChangePasswordRequest carries a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=1024"`
}

// PublicProfile is the subset of a profile visible to other users.
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	About       string `json:"about,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Get returns the user's profile without credential material.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// GetPublicProfile returns another user's public fields. Contact details
// like email and phone stay private to the account owner.
func (s *UserService) GetPublicProfile(ctx context.Context, userID string) (*PublicProfile, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		About:       user.About,
		Location:    user.Location,
	}, nil
}

// UpdateProfile applies a partial update to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.ReminderTime != nil {
		if _, _, err := reminder.ParseSweepTime(*req.ReminderTime); err != nil {
			return nil, domainerrors.Validation("reminder_time must be HH:MM")
		}
	}

	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.About != nil {
		user.About = *req.About
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.State != nil {
		user.State = *req.State
	}
	if req.Country != nil {
		user.Country = *req.Country
	}
	if req.NotificationChannels != nil {
		user.NotificationChannels = *req.NotificationChannels
	}
	if req.ReminderTime != nil {
		user.ReminderTime = *req.ReminderTime
	}
	if req.Theme != nil {
		user.Theme = *req.Theme
	}

	user.Touch()
	if err := s.store.Users.Update(ctx, userID, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user.Public(), nil
}

// ChangePassword verifies the current password and replaces it. All other
// sessions are revoked so a stolen refresh token stops working.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := s.validate.Validate(req); err != nil {
		return err
	}

	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domainerrors.InvalidCredentials("current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = hash
	user.Touch()
	if err := s.store.Users.Update(ctx, userID, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := s.sessions.RevokeAllSessions(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// DeleteAccount removes the user and everything they own.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return err
	}

	collections, err := s.store.Collections.ListByIndex(ctx, "owner", userID)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range collections {
		if _, err := s.store.DeleteBirthdaysByCollection(ctx, c.ID); err != nil {
			return fmt.Errorf("delete birthdays of %s: %w", c.ID, err)
		}
		if err := s.store.Collections.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("delete collection %s: %w", c.ID, err)
		}
	}

	if _, err := s.store.DeleteSessionsByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if err := s.store.Users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("account deleted", "user_id", userID)
	return nil
}
