package providers

import (
	"github.com/samber/do/v2"

	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/logger"
	"github.com/spiceapp/spice-server/internal/ratelimit"
	"github.com/spiceapp/spice-server/internal/score"
	"github.com/spiceapp/spice-server/internal/service"
)

// ProvideScoreEngine provides the score engine. The quality signal is a
// configured constant until a per-lecture source exists.
func ProvideScoreEngine(i do.Injector) (*score.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return score.NewEngine(score.Fixed(cfg.Catalog.QualitySignal), log.Logger), nil
}

// ProvidePager provides the cursor pager over the store.
func ProvidePager(i do.Injector) (*service.Pager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPager(storeHandle.Store, cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize, log.Logger), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	pager := do.MustInvoke[*service.Pager](i)
	engine := do.MustInvoke[*score.Engine](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, pager, engine, searchService, service.CatalogOptions{
		HighlyRatedMin:     cfg.Catalog.HighlyRatedMin,
		RecentRatingsLimit: cfg.Catalog.RecentRatingsLimit,
	}, log.Logger), nil
}

// RateLimiterHandle wraps the rating rate limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-client rating limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.PerMinute(cfg.RateLimit.RatingsPerMinute, cfg.RateLimit.Burst),
	}, nil
}

// ProvideRatingService provides the rating service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	var limiter service.Limiter
	if cfg.RateLimit.RatingsPerMinute > 0 {
		limiter = do.MustInvoke[*RateLimiterHandle](i)
	}

	return service.NewRatingService(storeHandle.Store, limiter, searchService, log.Logger), nil
}
