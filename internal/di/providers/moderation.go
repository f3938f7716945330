package providers

import (
	"github.com/samber/do/v2"

	"github.com/Vaalley/kohai/internal/config"
	"github.com/Vaalley/kohai/internal/logger"
	"github.com/Vaalley/kohai/internal/moderation"
)

// FilterHandle wraps the content filter with shutdown capability.
type FilterHandle struct {
	*moderation.Filter
}

// Shutdown implements do.Shutdownable.
func (h *FilterHandle) Shutdown() error {
	return h.Close()
}

// ProvideFilter provides the bad content filter. When a blocklist file is
// configured the filter watches it and reloads on change; otherwise the
// embedded list is used.
func ProvideFilter(i do.Injector) (*FilterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Moderation.BlocklistPath != "" {
		filter, err := moderation.NewFilterFromFile(cfg.Moderation.BlocklistPath, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Content filter initialized", "blocklist", cfg.Moderation.BlocklistPath)
		return &FilterHandle{Filter: filter}, nil
	}

	log.Info("Content filter initialized", "blocklist", "embedded")
	return &FilterHandle{Filter: moderation.NewFilter(log.Logger)}, nil
}
