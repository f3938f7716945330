package service

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaalley/kohai/internal/auth"
	domainerrors "github.com/Vaalley/kohai/internal/errors"
	"github.com/Vaalley/kohai/internal/store"
)

func newAuthStack(t *testing.T) (*AuthService, *SessionService, *store.Store) {
	t.Helper()

	s := newTestStore(t)

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, testLogger())
	authService := NewAuthService(s, tokenService, sessionService, testLogger())
	return authService, sessionService, s
}

func registerReq(username, email string) RegisterRequest {
	return RegisterRequest{
		Username: username,
		Email:    email,
		Password: "a-strong-password",
	}
}

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	authSvc, _, _ := newAuthStack(t)
	ctx := context.Background()

	first, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)
	assert.True(t, first.User.IsAdmin, "first account becomes admin")
	assert.NotEmpty(t, first.AccessToken)
	assert.NotEmpty(t, first.RefreshToken)
	assert.Empty(t, first.User.PasswordHash, "hash must never leave the service")

	second, err := authSvc.Register(ctx, registerReq("dutch", "dutch@example.com"))
	require.NoError(t, err)
	assert.False(t, second.User.IsAdmin)
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	authSvc, _, _ := newAuthStack(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)

	_, err = authSvc.Register(ctx, registerReq("other", "Arthur@Example.com"))
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestRegister_ValidationRejected(t *testing.T) {
	authSvc, _, _ := newAuthStack(t)

	_, err := authSvc.Register(context.Background(), RegisterRequest{
		Username: "ab", // too short
		Email:    "not-an-email",
		Password: "short",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLogin_Success(t *testing.T) {
	authSvc, _, _ := newAuthStack(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)

	resp, err := authSvc.Login(ctx, LoginRequest{
		Email:    "ARTHUR@example.com",
		Password: "a-strong-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "arthur", resp.User.Username)

	claims, err := authSvc.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	authSvc, _, _ := newAuthStack(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)

	_, err = authSvc.Login(ctx, LoginRequest{Email: "arthur@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = authSvc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRefresh_RotatesToken(t *testing.T) {
	authSvc, sessionSvc, _ := newAuthStack(t)
	ctx := context.Background()

	reg, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)

	rotated, err := sessionSvc.Refresh(ctx, reg.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, rotated.RefreshToken)

	// The old token is dead after rotation.
	_, err = sessionSvc.Refresh(ctx, reg.RefreshToken, "", "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// The new one works.
	_, err = sessionSvc.Refresh(ctx, rotated.RefreshToken, "", "")
	require.NoError(t, err)
}

func TestRevoke_Idempotent(t *testing.T) {
	authSvc, sessionSvc, _ := newAuthStack(t)
	ctx := context.Background()

	reg, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)

	require.NoError(t, sessionSvc.Revoke(ctx, reg.RefreshToken))
	require.NoError(t, sessionSvc.Revoke(ctx, reg.RefreshToken))

	_, err = sessionSvc.Refresh(ctx, reg.RefreshToken, "", "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestMe(t *testing.T) {
	authSvc, _, _ := newAuthStack(t)
	ctx := context.Background()

	reg, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)

	user, err := authSvc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "arthur", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = authSvc.Me(ctx, "user-does-not-exist")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListSessions_HashesStripped(t *testing.T) {
	authSvc, sessionSvc, _ := newAuthStack(t)
	ctx := context.Background()

	reg, err := authSvc.Register(ctx, registerReq("arthur", "arthur@example.com"))
	require.NoError(t, err)

	sessions, err := sessionSvc.ListSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Empty(t, sessions[0].RefreshTokenHash)
}
