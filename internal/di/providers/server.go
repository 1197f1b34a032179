package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/spiceapp/spice-server/internal/api"
	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/logger"
	"github.com/spiceapp/spice-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	registryHandle := do.MustInvoke[*SessionRegistryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Store:    storeHandle.Store,
		Catalog:  do.MustInvoke[*service.CatalogService](i),
		Ratings:  do.MustInvoke[*service.RatingService](i),
		Search:   do.MustInvoke[*service.SearchService](i),
		Sessions: registryHandle.Registry,
	}

	handler := api.NewServer(services, api.Options{
		Name:              cfg.Server.Name,
		CORSOrigins:       cfg.Server.CORSOrigins,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
