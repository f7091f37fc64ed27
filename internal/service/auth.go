// Package service implements the application use cases on top of the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/timetowish/timetowish-server/internal/auth"
	"github.com/timetowish/timetowish-server/internal/domain"
	domainerrors "github.com/timetowish/timetowish-server/internal/errors"
	"github.com/timetowish/timetowish-server/internal/id"
	"github.com/timetowish/timetowish-server/internal/store"
	"github.com/timetowish/timetowish-server/internal/validation"
)

// defaultCollectionName is the collection every new account starts with.
const defaultCollectionName = "Friends & Family"

// AuthService handles registration, login and token verification.
// Session lifecycle is delegated to SessionService.
type AuthService struct {
	store          *store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	validate       *validation.Validator
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store *store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	validate *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		validate:       validate,
		logger:         logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	UserAgent   string `json:"-"` // Extracted from request by handler
	IPAddress   string `json:"-"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	UserAgent    string `json:"-"`
	IPAddress    string `json:"-"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a new account with a starter collection and logs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Meta:                 domain.Meta{ID: userID},
		Email:                store.NormalizeEmail(req.Email),
		PasswordHash:         passwordHash,
		DisplayName:          req.DisplayName,
		NotificationChannels: domain.DefaultNotificationChannels(),
		ReminderTime:         "09:00",
		Theme:                domain.ThemeSystem,
		Status:               domain.AccountActive,
		LastLoginAt:          time.Now(),
	}
	user.InitTimestamps()

	if err := s.store.Users.Create(ctx, user.ID, user); err != nil {
		if domainerrors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Every account starts with one collection so the first birthday has a
	// home without an extra setup step.
	collectionID, err := id.Generate("coll")
	if err != nil {
		return nil, fmt.Errorf("generate collection ID: %w", err)
	}
	collection := &domain.Collection{
		Meta:    domain.Meta{ID: collectionID},
		OwnerID: user.ID,
		Name:    defaultCollectionName,
	}
	collection.InitTimestamps()
	if err := s.store.Collections.Create(ctx, collection.ID, collection); err != nil {
		return nil, fmt.Errorf("create default collection: %w", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.UserAgent, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	return &AuthResponse{
		User:            user.Public(),
		SessionResponse: *sessionResp,
	}, nil
}

// Login verifies credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByUniqueIndex(ctx, "email", req.Email)
	if err != nil {
		// Same response for unknown email and bad password.
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if !user.IsActive() {
		return nil, domainerrors.Forbidden("account is suspended")
	}

	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.Users.Update(ctx, user.ID, user); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.UserAgent, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &AuthResponse{
		User:            user.Public(),
		SessionResponse: *sessionResp,
	}, nil
}

// Refresh rotates a refresh token into a fresh token pair.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.UserAgent, req.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:            user.Public(),
		SessionResponse: *sessionResp,
	}, nil
}

// Logout revokes the session owning the refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessionService.RevokeSession(ctx, refreshToken)
}

// VerifyAccessToken validates a bearer token and returns its claims.
func (s *AuthService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}
	return claims, nil
}
