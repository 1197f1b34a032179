// Package providers contains dependency injection providers for the Spice server.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.WithFields(map[string]any{
		"environment":    cfg.App.Environment,
		"log_level":      cfg.Logger.Level,
		"store_backend":  cfg.Store.Backend,
		"search_enabled": cfg.Search.Enabled,
	}).Info("Starting Spice Server")

	return log, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
