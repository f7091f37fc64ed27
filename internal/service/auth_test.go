package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetowish/timetowish-server/internal/auth"
	"github.com/timetowish/timetowish-server/internal/domain"
	domainerrors "github.com/timetowish/timetowish-server/internal/errors"
	"github.com/timetowish/timetowish-server/internal/store"
	"github.com/timetowish/timetowish-server/internal/validation"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f"

type testEnv struct {
	store       *store.Store
	auth        *AuthService
	sessions    *SessionService
	users       *UserService
	collections *CollectionService
	birthdays   *BirthdayService
	analytics   *AnalyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	tokens, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	validate := validation.New()
	sessions := NewSessionService(st, tokens, logger)

	return &testEnv{
		store:       st,
		auth:        NewAuthService(st, tokens, sessions, validate, logger),
		sessions:    sessions,
		users:       NewUserService(st, sessions, validate, logger),
		collections: NewCollectionService(st, validate, logger),
		birthdays:   NewBirthdayService(st, validate, logger),
		analytics:   NewAnalyticsService(st, logger),
	}
}

func register(t *testing.T, env *testEnv, email string) *AuthResponse {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    "password123",
		DisplayName: "Test User",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp := register(t, env, "ada@example.com")

	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Empty(t, resp.User.PasswordHash, "credentials never leave the service")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	// New accounts get a starter collection.
	collections, err := env.collections.List(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "Friends & Family", collections[0].Name)

	// The access token verifies.
	claims, err := env.auth.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "ada@example.com")

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:       "ADA@example.com", // same address, different case
		Password:    "password123",
		DisplayName: "Other",
	})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:       "not-an-email",
		Password:    "short",
		DisplayName: "",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env, "ada@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{
		Email:    "Ada@Example.com", // lookup is case-insensitive
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestLogin_SuspendedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := register(t, env, "ada@example.com")

	user, err := env.store.Users.Get(ctx, resp.User.ID)
	require.NoError(t, err)
	user.Status = domain.AccountSuspended
	require.NoError(t, env.store.Users.Update(ctx, user.ID, user))

	_, err = env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestRefresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := register(t, env, "ada@example.com")

	refreshed, err := env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, resp.SessionID, refreshed.SessionID, "same session, new tokens")

	// The old refresh token is dead after rotation.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The new one works.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: refreshed.RefreshToken})
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := register(t, env, "ada@example.com")

	require.NoError(t, env.auth.Logout(ctx, resp.RefreshToken))

	_, err := env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// Logging out twice is fine.
	assert.NoError(t, env.auth.Logout(ctx, resp.RefreshToken))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := register(t, env, "ada@example.com")

	name := "Ada Lovelace"
	city := "London"
	reminderTime := "07:30"
	theme := domain.ThemeDark
	updated, err := env.users.UpdateProfile(ctx, resp.User.ID, UpdateProfileRequest{
		DisplayName:  &name,
		City:         &city,
		ReminderTime: &reminderTime,
		Theme:        &theme,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.DisplayName)
	assert.Equal(t, "London", updated.City)
	assert.Equal(t, "07:30", updated.ReminderTime)
	assert.Equal(t, domain.ThemeDark, updated.Theme)
	// Untouched fields stay.
	assert.Equal(t, "ada@example.com", updated.Email)

	bad := "25:99"
	_, err = env.users.UpdateProfile(ctx, resp.User.ID, UpdateProfileRequest{ReminderTime: &bad})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestGetPublicProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := register(t, env, "ada@example.com")

	about := "Analytical engines"
	location := "London"
	_, err := env.users.UpdateProfile(ctx, resp.User.ID, UpdateProfileRequest{
		About:    &about,
		Location: &location,
	})
	require.NoError(t, err)

	profile, err := env.users.GetPublicProfile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, profile.ID)
	assert.Equal(t, "Test User", profile.DisplayName)
	assert.Equal(t, "Analytical engines", profile.About)
	assert.Equal(t, "London", profile.Location)

	_, err = env.users.GetPublicProfile(ctx, "user-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := register(t, env, "ada@example.com")

	err := env.users.ChangePassword(ctx, resp.User.ID, ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password-1",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	err = env.users.ChangePassword(ctx, resp.User.ID, ChangePasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "new-password-1",
	})
	require.NoError(t, err)

	// Existing sessions are revoked.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.Error(t, err)

	// New password logs in.
	_, err = env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "new-password-1"})
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp := register(t, env, "ada@example.com")

	require.NoError(t, env.users.DeleteAccount(ctx, resp.User.ID))

	_, err := env.users.Get(ctx, resp.User.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	collections, err := env.store.Collections.ListByIndex(ctx, "owner", resp.User.ID)
	require.NoError(t, err)
	assert.Empty(t, collections)

	// The email is free again.
	register(t, env, "ada@example.com")
}
