package providers

import (
	"github.com/samber/do/v2"

	"github.com/Vaalley/kohai/internal/config"
	"github.com/Vaalley/kohai/internal/igdb"
	"github.com/Vaalley/kohai/internal/logger"
	"github.com/Vaalley/kohai/internal/service"
)

// IGDBClientHandle wraps the IGDB client with shutdown capability.
type IGDBClientHandle struct {
	*igdb.Client
}

// Shutdown implements do.Shutdownable.
func (h *IGDBClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideTokenGuard provides the Twitch credential guard backing IGDB calls.
func ProvideTokenGuard(i do.Injector) (*igdb.TokenGuard, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	exchanger := &igdb.TwitchExchanger{
		ClientID:     cfg.IGDB.ClientID,
		ClientSecret: cfg.IGDB.ClientSecret,
	}

	return igdb.NewTokenGuard(exchanger, cfg.IGDB.SafetyMargin, cfg.Data.BasePath, log.Logger), nil
}

// ProvideIGDBClient provides the IGDB API client.
func ProvideIGDBClient(i do.Injector) (*IGDBClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	guard := do.MustInvoke[*igdb.TokenGuard](i)

	client := igdb.NewClient(cfg.IGDB.ClientID, guard, cfg.IGDB.RequestTimeout, log.Logger)
	return &IGDBClientHandle{Client: client}, nil
}

// ProvideCatalogService provides the game catalog service with its caches.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	guard := do.MustInvoke[*igdb.TokenGuard](i)
	clientHandle := do.MustInvoke[*IGDBClientHandle](i)

	searchCache := igdb.NewCache[[]igdb.Game](cfg.Cache.SearchCapacity, cfg.Cache.TTL)
	detailCache := igdb.NewCache[*igdb.Game](cfg.Cache.DetailCapacity, cfg.Cache.TTL)

	log.Info("Catalog service initialized",
		"search_cache_capacity", cfg.Cache.SearchCapacity,
		"detail_cache_capacity", cfg.Cache.DetailCapacity,
		"cache_ttl", cfg.Cache.TTL,
	)

	return service.NewCatalogService(clientHandle.Client, guard, searchCache, detailCache, log.Logger), nil
}
