package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Vaalley/kohai/internal/domain"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's account",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "List sessions",
		Description: "Returns the authenticated user's active sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeAllSessions",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "Revoke all sessions",
		Description: "Logs the authenticated user out everywhere",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRevokeAllSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user",
		Description: "Returns a user's public account information",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "promoteUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{id}/promote",
		Summary:     "Promote user to admin",
		Description: "Grants admin rights to a user. Admin only, idempotent.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePromoteUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{id}",
		Summary:     "Delete user",
		Description: "Deletes an account with its sessions and contributions. Users may delete themselves; admins may delete anyone.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserContributions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/contributions",
		Summary:     "List user contributions",
		Description: "Returns a user's live tag contributions across all media, most recently touched first",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUserContributions)
}

// === DTOs ===

// UserOutput wraps a user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// UserIDInput carries a user ID path parameter.
type UserIDInput struct {
	ID string `path:"id" maxLength:"100" doc:"User ID"`
}

// SessionInfo describes one active session without its token hash.
type SessionInfo struct {
	ID         string    `json:"id" doc:"Session ID"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation timestamp"`
	LastSeenAt time.Time `json:"last_seen_at" doc:"Last activity timestamp"`
	ExpiresAt  time.Time `json:"expires_at" doc:"Expiry timestamp"`
	IPAddress  string    `json:"ip_address,omitempty" doc:"Client IP at login"`
	UserAgent  string    `json:"user_agent,omitempty" doc:"Client user agent at login"`
}

// ListSessionsResponse contains a user's active sessions.
type ListSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions" doc:"Active sessions"`
}

// ListSessionsOutput wraps the session list for Huma.
type ListSessionsOutput struct {
	Body ListSessionsResponse
}

// ContributionResponse describes one live tag contribution.
type ContributionResponse struct {
	ID        string    `json:"id" doc:"Contribution ID"`
	MediaType string    `json:"media_type" doc:"Media type"`
	MediaSlug string    `json:"media_slug" doc:"Media slug"`
	Tag       string    `json:"tag" doc:"Canonical tag text"`
	CreatedAt time.Time `json:"created_at" doc:"First submission timestamp"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last refresh timestamp"`
}

// ListContributionsResponse contains a user's live contributions.
type ListContributionsResponse struct {
	Contributions []ContributionResponse `json:"contributions" doc:"Live contributions, most recent first"`
}

// ListContributionsOutput wraps the contribution list for Huma.
type ListContributionsOutput struct {
	Body ListContributionsResponse
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleListSessions(ctx context.Context, _ *struct{}) (*ListSessionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Session.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, SessionInfo{
			ID:         session.ID,
			CreatedAt:  session.CreatedAt,
			LastSeenAt: session.LastSeenAt,
			ExpiresAt:  session.ExpiresAt,
			IPAddress:  session.IPAddress,
			UserAgent:  session.UserAgent,
		})
	}

	return &ListSessionsOutput{Body: ListSessionsResponse{Sessions: out}}, nil
}

func (s *Server) handleRevokeAllSessions(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Session.RevokeAll(ctx, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "All sessions revoked"}}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	user, err := s.services.User.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handlePromoteUser(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
	actor, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	promoted, err := s.services.User.Promote(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(promoted)}, nil
}

func (s *Server) handleDeleteUser(ctx context.Context, input *UserIDInput) (*MessageOutput, error) {
	actor, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.User.Delete(ctx, actor, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Account deleted"}}, nil
}

func (s *Server) handleListUserContributions(ctx context.Context, input *UserIDInput) (*ListContributionsOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	contributions, err := s.services.Contribution.ListUserContributions(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ListContributionsOutput{
		Body: ListContributionsResponse{Contributions: mapContributions(contributions)},
	}, nil
}

func mapContributions(contributions []*domain.Contribution) []ContributionResponse {
	out := make([]ContributionResponse, 0, len(contributions))
	for _, c := range contributions {
		out = append(out, ContributionResponse{
			ID:        c.ID,
			MediaType: string(c.MediaType),
			MediaSlug: string(c.MediaSlug),
			Tag:       string(c.Tag),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return out
}
