package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/Vaalley/kohai/internal/logger"
	"github.com/Vaalley/kohai/internal/service"
)

const sessionCleanupInterval = time.Hour

// SessionCleanupJob periodically removes expired refresh sessions.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the background session cleanup worker.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		cleanup := func() {
			removed, err := sessionService.CleanupExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error("Session cleanup failed", "error", err)
				}
				return
			}
			if removed > 0 {
				log.Info("Expired sessions removed", "count", removed)
			}
		}

		cleanup()

		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanup()
			}
		}
	}()

	log.Info("Session cleanup worker started", "interval", sessionCleanupInterval)

	return &SessionCleanupJob{cancel: cancel}, nil
}
