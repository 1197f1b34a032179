// Package di provides dependency injection configuration for the Spice server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/di/providers"
	"github.com/spiceapp/spice-server/internal/logger"
	"github.com/spiceapp/spice-server/internal/score"
	"github.com/spiceapp/spice-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideScoreEngine)
	do.Provide(injector, providers.ProvidePager)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideRatingService)

	// Workers
	do.Provide(injector, providers.ProvideSessionRegistry)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.SearchService](injector)

	// Business services
	_ = do.MustInvoke[*score.Engine](injector)
	_ = do.MustInvoke[*service.Pager](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.RatingService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionRegistryHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Fill an empty search index from the store
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
