package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/spiceapp/spice-server/internal/catalog"
	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/logger"
	"github.com/spiceapp/spice-server/internal/score"
	"github.com/spiceapp/spice-server/internal/service"
)

// SessionRegistryHandle wraps the session registry and its idle sweeper.
type SessionRegistryHandle struct {
	*catalog.Registry
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *SessionRegistryHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideSessionRegistry provides the browsing session registry and starts
// its idle sweeper.
func ProvideSessionRegistry(i do.Injector) (*SessionRegistryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	pager := do.MustInvoke[*service.Pager](i)
	engine := do.MustInvoke[*score.Engine](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := catalog.Options{HighlyRatedMin: cfg.Catalog.HighlyRatedMin}
	registry := catalog.NewRegistry(func() *catalog.Session {
		return catalog.NewSession(pager, engine, searchService, opts, log.Logger)
	}, catalog.RegistryOptions{
		MaxSessions: cfg.Catalog.MaxSessions,
		IdleTTL:     cfg.Catalog.SessionIdleTimeout,
	}, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		registry.Start(ctx)
	}()

	log.Info("Session registry started",
		"max_sessions", cfg.Catalog.MaxSessions,
		"idle_timeout", cfg.Catalog.SessionIdleTimeout,
	)

	return &SessionRegistryHandle{Registry: registry, cancel: cancel, done: done}, nil
}
