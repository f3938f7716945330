package api

import (
	"github.com/Vaalley/kohai/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth         *service.AuthService
	Session      *service.SessionService
	User         *service.UserService
	Contribution *service.ContributionService
	Catalog      *service.CatalogService
}
