package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseArgs isolates a Load call from any .env or spice.yaml in the cwd.
func baseArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	dir := t.TempDir()
	args := []string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--config", "",
		"--data-path", dir,
	}
	return append(args, extra...)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(baseArgs(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(cfg.App.DataPath, "catalog.db"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(cfg.App.DataPath, "search"), cfg.Search.Path)
	assert.Equal(t, 20, cfg.Catalog.DefaultPageSize)
	assert.InDelta(t, 3.5, cfg.Catalog.QualitySignal, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Server.TrustProxyHeaders)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPICE_LOG_LEVEL", "debug")
	t.Setenv("SPICE_STORE_BACKEND", "badger")
	t.Setenv("SPICE_QUALITY_SIGNAL", "4.25")
	t.Setenv("SPICE_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("SPICE_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SPICE_UNRELATED", "ignored")
	t.Setenv("SPICE_TRUST_PROXY_HEADERS", "true")

	cfg, err := Load(baseArgs(t))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(cfg.App.DataPath, "badger"), cfg.Store.Path)
	assert.InDelta(t, 4.25, cfg.Catalog.QualitySignal, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.TrustProxyHeaders)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPICE_SERVER_PORT", "9000")

	cfg, err := Load(baseArgs(t, "--port", "9100", "--log-level", "warn"))
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "spice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  default_page_size: 10
  max_page_size: 50
search:
  enabled: false
`), 0o600))

	args := baseArgs(t)
	args = append(args, "--config", path)
	cfg, err := Load(args)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Catalog.DefaultPageSize)
	assert.Equal(t, 50, cfg.Catalog.MaxPageSize)
	assert.False(t, cfg.Search.Enabled)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nSPICE_SERVER_NAME=\"From File\"\nSPICE_SERVER_PORT=7000\n"), 0o600))
	t.Setenv("SPICE_SERVER_PORT", "7100")
	// Registered so t.Setenv restores it.
	t.Setenv("SPICE_SERVER_NAME", "")
	require.NoError(t, os.Unsetenv("SPICE_SERVER_NAME"))

	cfg, err := Load([]string{"--env-file", envPath, "--config", "", "--data-path", dir})
	require.NoError(t, err)

	assert.Equal(t, "From File", cfg.Server.Name)
	assert.Equal(t, "7100", cfg.Server.Port)
	_, leaked := os.LookupEnv("SPICE_SERVER_NAME")
	assert.False(t, leaked, ".env values are read into config, not the process environment")
}

func TestLoad_EnvFileIgnoresUnknownKeys(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("OTHER_APP_PORT=1\nSPICE_NOT_A_SETTING=x\nSPICE_PAGE_SIZE=7\n"), 0o600))

	cfg, err := Load([]string{"--env-file", envPath, "--config", "", "--data-path", dir})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Catalog.DefaultPageSize)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "environment", args: []string{"--env", "test"}},
		{name: "log level", args: []string{"--log-level", "verbose"}},
		{name: "backend", args: []string{"--store", "postgres"}},
		{name: "quality signal", env: map[string]string{"SPICE_QUALITY_SIGNAL": "7"}},
		{name: "page size", env: map[string]string{"SPICE_PAGE_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(baseArgs(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestValidate_Mongo(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendMongo
	cfg.Search.Enabled = false
	require.NoError(t, cfg.Validate())

	cfg.Store.MongoURI = ""
	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/spice", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "spice"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("/a/../b", "")
	require.NoError(t, err)
	assert.Equal(t, "/b", got)
}
