package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/logger"
	"github.com/spiceapp/spice-server/internal/store"
	"github.com/spiceapp/spice-server/internal/store/mongo"
	"github.com/spiceapp/spice-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	s, err := OpenStore(cfg.Store, log)
	if err != nil {
		return nil, err
	}

	n, err := s.CountLectures(context.Background())
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("check %s store: %w", cfg.Store.Backend, err)
	}
	log.Info("Store initialized",
		"backend", cfg.Store.Backend,
		"path", cfg.Store.Path,
		"lectures", n,
	)

	return &StoreHandle{Store: s, Backend: cfg.Store.Backend}, nil
}

// OpenStore opens the backend named by cfg.Backend. Backend log lines carry
// a "backend" attribute.
func OpenStore(cfg config.StoreConfig, log *logger.Logger) (store.Store, error) {
	log = log.WithField("backend", cfg.Backend)
	switch cfg.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return sqlite.Open(cfg.Path, log.Logger)
	case config.BackendBadger:
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return store.Open(cfg.Path, log.Logger)
	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
