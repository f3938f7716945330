package auth

import (
	"encoding/hex"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vaalley/kohai/internal/domain"
)

func newTestTokenService(t *testing.T, accessDuration time.Duration) *TokenService {
	t.Helper()

	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	svc, err := NewTokenService(hex.EncodeToString(key), accessDuration, 30*24*time.Hour)
	require.NoError(t, err)
	return svc
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute)

	user := &domain.User{
		ID:       "user-abc123",
		Username: "arthur",
		IsAdmin:  true,
	}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-abc123", claims.UserID)
	assert.Equal(t, "arthur", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "user-abc123", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	token, err := svc.GenerateAccessToken(&domain.User{ID: "user-abc"})
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestTokenService_GarbageToken(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute)

	_, err := svc.VerifyAccessToken("v4.local.notARealToken")
	assert.Error(t, err)
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService("tooshort", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService("zz"+hex.EncodeToString(make([]byte, 31)), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestHashRefreshToken_Deterministic(t *testing.T) {
	svc := newTestTokenService(t, time.Minute)

	token, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.Equal(t, HashRefreshToken(token), HashRefreshToken(token))
	other, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, HashRefreshToken(token), HashRefreshToken(other))
}

func TestLoadOrGenerateKey_Persists(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	second, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)

	assert.Equal(t, first, second, "key must be stable across restarts")

	info, err := os.Stat(dir + "/auth.key")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestHashPassword_VerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-a-hash", "password")
	require.NoError(t, err)
	assert.False(t, ok)
}
