package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Vaalley/kohai/internal/auth"
	"github.com/Vaalley/kohai/internal/domain"
	domainerrors "github.com/Vaalley/kohai/internal/errors"
	"github.com/Vaalley/kohai/internal/store"
)

// SessionService manages refresh token sessions: creation, rotation, and
// revocation.
type SessionService struct {
	store        *store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewSessionService creates a session service.
func NewSessionService(s *store.Store, tokenService *auth.TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:        s,
		tokenService: tokenService,
		logger:       logger,
	}
}

// SessionResponse carries the token pair issued to a client.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access token lifetime in seconds
}

// CreateSession issues a new token pair and persists the session.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User, ipAddress, userAgent string) (*SessionResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session created", "user_id", user.ID, "session_id", session.ID)

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the presented token is invalidated and
// a fresh pair is issued on the same session.
func (s *SessionService) Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*SessionResponse, error) {
	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrSessionExpired) {
			return nil, domainerrors.TokenExpired("session expired, please log in again")
		}
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, domainerrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	user, err := s.store.Users.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The account was deleted while the session lived on.
			//nolint:errcheck // Best-effort cleanup of the orphaned session
			_ = s.store.DeleteSession(ctx, session.ID)
			return nil, domainerrors.Unauthorized("account no longer exists")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	newRefreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session.RefreshTokenHash = auth.HashRefreshToken(newRefreshToken)
	session.Touch()
	if ipAddress != "" {
		session.IPAddress = ipAddress
	}
	if userAgent != "" {
		session.UserAgent = userAgent
	}

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// Revoke logs out the session behind the presented refresh token.
// Unknown tokens are a no-op, so logout is idempotent.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("session revoked", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

// RevokeAll removes every session a user has.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	return s.store.DeleteAllUserSessions(ctx, userID)
}

// ListSessions returns a user's active sessions with token hashes blanked.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	sessions, err := s.store.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		session.RefreshTokenHash = ""
	}
	return sessions, nil
}

// CleanupExpired deletes expired sessions. Meant for a periodic job.
func (s *SessionService) CleanupExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx)
}
