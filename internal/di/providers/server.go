package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/Vaalley/kohai/internal/api"
	"github.com/Vaalley/kohai/internal/config"
	"github.com/Vaalley/kohai/internal/logger"
	"github.com/Vaalley/kohai/internal/service"
)

// HTTPServerHandle wraps the HTTP server with shutdown capability.
type HTTPServerHandle struct {
	server    *http.Server
	apiServer *api.Server
	logger    *logger.Logger
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.logger.Info("Shutting down HTTP server")
	err := h.server.Shutdown(ctx)
	h.apiServer.Close()
	return err
}

// ProvideHTTPServer builds the API server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	services := &api.Services{
		Auth:         do.MustInvoke[*service.AuthService](i),
		Session:      do.MustInvoke[*service.SessionService](i),
		User:         do.MustInvoke[*service.UserService](i),
		Contribution: do.MustInvoke[*service.ContributionService](i),
		Catalog:      do.MustInvoke[*service.CatalogService](i),
	}

	apiServer := api.NewServer(storeHandle.Store, services, cfg, log.Logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr, "name", cfg.Server.Name)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{server: server, apiServer: apiServer, logger: log}, nil
}
