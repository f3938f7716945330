package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vaalley/kohai/internal/domain"
	domainerrors "github.com/Vaalley/kohai/internal/errors"
	"github.com/Vaalley/kohai/internal/store"
)

// UserService handles account management beyond authentication: admin
// promotion and account deletion.
type UserService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserService creates a user service.
func NewUserService(s *store.Store, logger *slog.Logger) *UserService {
	return &UserService{store: s, logger: logger}
}

// Get returns a user by ID with the password hash stripped.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// Promote grants admin rights to a user. Only admins may promote.
func (s *UserService) Promote(ctx context.Context, actor *domain.User, targetID string) (*domain.User, error) {
	if !actor.IsAdmin {
		return nil, domainerrors.Forbidden("only admins can promote users")
	}

	target, err := s.store.Users.Get(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if target.IsAdmin {
		target.PasswordHash = ""
		return target, nil
	}

	target.IsAdmin = true
	target.Touch()
	if err := s.store.Users.Update(ctx, targetID, target); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user promoted to admin", "user_id", targetID, "by", actor.ID)

	target.PasswordHash = ""
	return target, nil
}

// Delete removes an account along with its sessions and contributions,
// recomputing the aggregates of every media the user had tagged. Users
// may delete themselves; admins may delete anyone.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, targetID string) error {
	if !actor.CanManage(targetID) {
		return domainerrors.Forbidden("cannot delete another user's account")
	}

	if _, err := s.store.Users.Get(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("load user: %w", err)
	}

	removed, err := s.store.DeleteUserContributions(ctx, targetID)
	if err != nil {
		return fmt.Errorf("delete contributions: %w", err)
	}

	if err := s.store.DeleteAllUserSessions(ctx, targetID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	if err := s.store.Users.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("user deleted",
		"user_id", targetID, "by", actor.ID, "contributions_removed", removed)
	return nil
}
