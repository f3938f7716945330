package providers

import (
	"github.com/samber/do/v2"

	"github.com/Vaalley/kohai/internal/auth"
	"github.com/Vaalley/kohai/internal/logger"
	"github.com/Vaalley/kohai/internal/service"
)

// ProvideSessionService provides the refresh session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Logger), nil
}

// ProvideUserService provides the user management service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideContributionService provides the tag contribution service.
func ProvideContributionService(i do.Injector) (*service.ContributionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	filterHandle := do.MustInvoke[*FilterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewContributionService(storeHandle.Store, filterHandle.Filter, log.Logger), nil
}
