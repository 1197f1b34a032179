// Package config loads server configuration.
//
// Precedence, lowest to highest: built-in defaults, YAML config file,
// .env file, environment variables, command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before mapping.
const EnvPrefix = "SPICE_"

// DefaultConfigPaths are tried in order when no --config flag is given.
var DefaultConfigPaths = []string{"spice.yaml", "spice.yml", "/etc/spice/spice.yaml"}

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Logger    LoggerConfig    `koanf:"logger"`
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Search    SearchConfig    `koanf:"search"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
	DataPath    string `koanf:"data_path"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // empty picks by environment
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string        `koanf:"name"`
	Port         string        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`
}

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMongo  = "mongo"
)

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend       string `koanf:"backend"`
	Path          string `koanf:"path"` // file for sqlite, directory for badger
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
}

// CatalogConfig tunes paging and ranking.
type CatalogConfig struct {
	DefaultPageSize    int           `koanf:"default_page_size"`
	MaxPageSize        int           `koanf:"max_page_size"`
	QualitySignal      float64       `koanf:"quality_signal"`
	HighlyRatedMin     float64       `koanf:"highly_rated_min"`
	RecentRatingsLimit int           `koanf:"recent_ratings_limit"`
	MaxSessions        int           `koanf:"max_sessions"`
	SessionIdleTimeout time.Duration `koanf:"session_idle_timeout"`
}

// SearchConfig configures the full-text index.
type SearchConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Path             string        `koanf:"path"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// RateLimitConfig bounds rating submissions per client.
type RateLimitConfig struct {
	RatingsPerMinute int `koanf:"ratings_per_minute"`
	Burst            int `koanf:"burst"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		App:    AppConfig{Environment: "development", DataPath: "~/.spice"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Name:         "Spice Server",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Store: StoreConfig{
			Backend:       BackendSQLite,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "spice",
		},
		Catalog: CatalogConfig{
			DefaultPageSize:    20,
			MaxPageSize:        100,
			QualitySignal:      3.5,
			HighlyRatedMin:     3.5,
			RecentRatingsLimit: 50,
			MaxSessions:        1024,
			SessionIdleTimeout: 30 * time.Minute,
		},
		Search: SearchConfig{
			Enabled:          true,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{RatingsPerMinute: 30, Burst: 5},
	}
}

// envKeys maps SPICE_-stripped, lowercased variable names to config paths.
var envKeys = map[string]string{
	"env":                      "app.environment",
	"data_path":                "app.data_path",
	"log_level":                "logger.level",
	"log_format":               "logger.format",
	"server_name":              "server.name",
	"server_port":              "server.port",
	"server_read_timeout":      "server.read_timeout",
	"server_write_timeout":     "server.write_timeout",
	"server_idle_timeout":      "server.idle_timeout",
	"cors_origins":             "server.cors_origins",
	"trust_proxy_headers":      "server.trust_proxy_headers",
	"store_backend":            "store.backend",
	"store_path":               "store.path",
	"mongo_uri":                "store.mongo_uri",
	"mongo_database":           "store.mongo_database",
	"page_size":                "catalog.default_page_size",
	"max_page_size":            "catalog.max_page_size",
	"quality_signal":           "catalog.quality_signal",
	"highly_rated_min":         "catalog.highly_rated_min",
	"recent_ratings_limit":     "catalog.recent_ratings_limit",
	"max_sessions":             "catalog.max_sessions",
	"session_idle_timeout":     "catalog.session_idle_timeout",
	"search_enabled":           "search.enabled",
	"search_path":              "search.path",
	"search_breaker_threshold": "search.breaker_threshold",
	"search_breaker_timeout":   "search.breaker_timeout",
	"ratings_per_minute":       "ratelimit.ratings_per_minute",
	"ratings_burst":            "ratelimit.burst",
}

// sliceKeys are comma-separated when they come from the environment.
var sliceKeys = []string{"server.cors_origins"}

// LoadConfig loads configuration using os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config from defaults, files, environment and args.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("spice", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	flagKeys := map[string]*string{
		"app.environment": fs.String("env", "", "Environment (development, staging, production)"),
		"logger.level":    fs.String("log-level", "", "Log level (debug, info, warn, error)"),
		"server.port":     fs.String("port", "", "Server port"),
		"store.backend":   fs.String("store", "", "Store backend (sqlite, badger, mongo)"),
		"store.path":      fs.String("store-path", "", "Store file or directory"),
		"app.data_path":   fs.String("data-path", "", "Base directory for local data"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(*configPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// A missing .env is fine. Real environment variables load after it and win.
	if _, err := os.Stat(*envFile); err == nil {
		if err := k.Load(file.Provider(*envFile), dotenv.ParserEnv(EnvPrefix, ".", envKey)); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSliceKeys(k); err != nil {
		return nil, err
	}

	for key, val := range flagKeys {
		if *val == "" {
			continue
		}
		if err := k.Set(key, *val); err != nil {
			return nil, fmt.Errorf("apply flag %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps SPICE_LOG_LEVEL to logger.level. Unknown variables are dropped.
func envKey(s string) string {
	name := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return envKeys[name]
}

func splitSliceKeys(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Store.Backend {
	case BackendSQLite, BackendBadger:
		if c.Store.Path == "" {
			return errors.New("store path cannot be empty")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("mongo backend requires mongo_uri and mongo_database")
		}
	default:
		return fmt.Errorf("invalid store backend: %q (must be sqlite, badger, or mongo)", c.Store.Backend)
	}

	if c.Catalog.DefaultPageSize < 1 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	if c.Catalog.QualitySignal < 1 || c.Catalog.QualitySignal > 5 {
		return fmt.Errorf("quality signal %v outside [1,5]", c.Catalog.QualitySignal)
	}
	if c.Search.Enabled && c.Search.Path == "" {
		return errors.New("search path cannot be empty when search is enabled")
	}
	return nil
}

// expandPaths resolves ~ and fills path defaults under App.DataPath.
func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base, err := expandPath(c.App.DataPath, filepath.Join(home, ".spice"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.App.DataPath = base

	storeDefault := filepath.Join(base, "catalog.db")
	if c.Store.Backend == BackendBadger {
		storeDefault = filepath.Join(base, "badger")
	}
	if c.Store.Path, err = expandPath(c.Store.Path, storeDefault); err != nil {
		return fmt.Errorf("invalid store path: %w", err)
	}
	if c.Search.Path, err = expandPath(c.Search.Path, filepath.Join(base, "search")); err != nil {
		return fmt.Errorf("invalid search path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes path absolute. Empty path yields defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}
