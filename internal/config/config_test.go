package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://alkoreg.agri.ee/avaandmed", cfg.Registry.URL)
	assert.Equal(t, "Õlu", cfg.Registry.ProductClass)
	assert.Equal(t, 30, cfg.Registry.SinceDays)
	assert.Equal(t, 5*time.Minute, cfg.Registry.Timeout())
	assert.Equal(t, 4, cfg.Catalog.WindowWeeks)
	assert.True(t, cfg.Enrich.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Enrich.Timeout())
	assert.InDelta(t, 2.0, cfg.Enrich.RatePerSec, 0.001)
	assert.Equal(t, 7*24*time.Hour, cfg.Enrich.CacheTTL())
	assert.Equal(t, "build", cfg.Output.Dir)
	assert.Equal(t, []string{"json", "html"}, cfg.Output.Formats)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.AliasMap())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
registry:
  since_days: 7
catalog:
  window_weeks: 6
enrich:
  enabled: false
aliases:
  - name: "Sori Brewing OÜ"
    alias: Sori
  - name: "Lehe Pruulikoda OÜ"
    alias: Lehe
output:
  formats: [json, xlsx]
store:
  driver: none
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Registry.SinceDays)
	assert.Equal(t, 6, cfg.Catalog.WindowWeeks)
	assert.False(t, cfg.Enrich.Enabled)
	assert.Equal(t, []string{"json", "xlsx"}, cfg.Output.Formats)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, map[string]string{
		"Sori Brewing OÜ":    "Sori",
		"Lehe Pruulikoda OÜ": "Lehe",
	}, cfg.AliasMap())
	// Defaults still apply for unset values
	assert.Equal(t, "Õlu", cfg.Registry.ProductClass)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("BEERREG_STORE_DRIVER", "postgres")
	t.Setenv("BEERREG_LOG_LEVEL", "warn")
	t.Setenv("BEERREG_ENRICH_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "secret", cfg.Enrich.APIKey)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestRegistrySince(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	assert.True(t, RegistryConfig{}.Since(now).IsZero())
	assert.Equal(t, time.Date(2024, time.February, 9, 0, 0, 0, 0, time.UTC), RegistryConfig{SinceDays: 30}.Since(now))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Registry.URL = "https://alkoreg.agri.ee/avaandmed"
	cfg.Registry.ProductClass = "Õlu"
	cfg.Catalog.WindowWeeks = 4
	cfg.Enrich.Enabled = true
	cfg.Enrich.APIKey = "rb-key"
	cfg.Output.Formats = []string{"json", "html"}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "beer-registry.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateBuild_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("build"))
}

func TestValidateBuild_MissingAPIKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Enrich.APIKey = ""

	err := cfg.Validate("build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich.api_key is required")

	cfg.Enrich.Enabled = false
	assert.NoError(t, cfg.Validate("build"))
}

func TestValidateBuild_CollectsErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Registry.URL = ""
	cfg.Output.Formats = []string{"json", "pdf"}
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.url is required")
	assert.Contains(t, err.Error(), "unknown format pdf")
	assert.Contains(t, err.Error(), "store.driver must be one of")
}

func TestValidateStoreURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "none"
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateLookup(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("lookup"))

	cfg.Enrich.APIKey = ""
	assert.Error(t, cfg.Validate("lookup"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateRuns_NoStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "none"

	err := cfg.Validate("runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keeps no run history")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
