package api

import (
	"github.com/spiceapp/spice-server/internal/catalog"
	"github.com/spiceapp/spice-server/internal/service"
	"github.com/spiceapp/spice-server/internal/store"
)

// Services groups everything the handlers call.
type Services struct {
	Store    store.Store
	Catalog  *service.CatalogService
	Ratings  *service.RatingService
	Search   *service.SearchService
	Sessions *catalog.Registry
}
