// Package di provides dependency injection configuration for the Kohai server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/Vaalley/kohai/internal/auth"
	"github.com/Vaalley/kohai/internal/config"
	"github.com/Vaalley/kohai/internal/di/providers"
	"github.com/Vaalley/kohai/internal/igdb"
	"github.com/Vaalley/kohai/internal/logger"
	"github.com/Vaalley/kohai/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Moderation layer
	do.Provide(injector, providers.ProvideFilter)

	// Catalog layer
	do.Provide(injector, providers.ProvideTokenGuard)
	do.Provide(injector, providers.ProvideIGDBClient)
	do.Provide(injector, providers.ProvideCatalogService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideContributionService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.FilterHandle](injector)
	_ = do.MustInvoke[*igdb.TokenGuard](injector)
	_ = do.MustInvoke[*providers.IGDBClientHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.ContributionService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
