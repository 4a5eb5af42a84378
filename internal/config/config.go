package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Registry    RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Catalog     CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Enrich      EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Aliases     []AliasConfig  `yaml:"aliases" mapstructure:"aliases"`
	AliasesFile string         `yaml:"aliases_file" mapstructure:"aliases_file"`
	Output      OutputConfig   `yaml:"output" mapstructure:"output"`
	Store       StoreConfig    `yaml:"store" mapstructure:"store"`
	Server      ServerConfig   `yaml:"server" mapstructure:"server"`
	Log         LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegistryConfig configures the registry feed download.
type RegistryConfig struct {
	URL          string `yaml:"url" mapstructure:"url"`
	ProductClass string `yaml:"product_class" mapstructure:"product_class"`
	SinceDays    int    `yaml:"since_days" mapstructure:"since_days"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the feed download timeout.
func (c RegistryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Since returns the earliest registration date to keep, or the zero time
// when SinceDays is not set.
func (c RegistryConfig) Since(now time.Time) time.Time {
	if c.SinceDays <= 0 {
		return time.Time{}
	}
	y, m, d := now.UTC().AddDate(0, 0, -c.SinceDays).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CatalogConfig configures variant consolidation.
type CatalogConfig struct {
	WindowWeeks int `yaml:"window_weeks" mapstructure:"window_weeks"`
}

// EnrichConfig configures RateBeer enrichment.
type EnrichConfig struct {
	Enabled       bool    `yaml:"enabled" mapstructure:"enabled"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey        string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// Timeout returns the per-lookup timeout.
func (c EnrichConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CacheTTL returns how long lookup outcomes are cached. Zero disables the cache.
func (c EnrichConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// AliasConfig renames a registered producer or applicant. Aliases are a list
// rather than a map because viper lower-cases map keys.
type AliasConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Alias string `yaml:"alias" mapstructure:"alias"`
}

// OutputConfig configures published artifacts.
type OutputConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the catalog HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AliasMap flattens the configured aliases.
func (c *Config) AliasMap() map[string]string {
	m := make(map[string]string, len(c.Aliases))
	for _, a := range c.Aliases {
		if a.Name != "" && a.Alias != "" {
			m[a.Name] = a.Alias
		}
	}
	return m
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BEERREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("registry.url", "https://alkoreg.agri.ee/avaandmed")
	v.SetDefault("registry.product_class", "Õlu")
	v.SetDefault("registry.since_days", 30)
	v.SetDefault("registry.user_agent", "beer-registry/1.0")
	v.SetDefault("registry.timeout_secs", 300)
	v.SetDefault("catalog.window_weeks", 4)
	v.SetDefault("enrich.enabled", true)
	v.SetDefault("enrich.base_url", "https://api.r8.beer/v1/api/graphql/")
	v.SetDefault("enrich.api_key", "")
	v.SetDefault("enrich.timeout_secs", 15)
	v.SetDefault("enrich.rate_per_sec", 2.0)
	v.SetDefault("enrich.cache_ttl_hours", 168)
	v.SetDefault("aliases_file", "")
	v.SetDefault("output.dir", "build")
	v.SetDefault("output.formats", []string{"json", "html"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "beer-registry.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs before it starts.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "none":
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for driver "+c.Store.Driver)
		}
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, none")
	}

	switch mode {
	case "build":
		if c.Registry.URL == "" {
			errs = append(errs, "registry.url is required")
		}
		if c.Registry.ProductClass == "" {
			errs = append(errs, "registry.product_class is required")
		}
		if c.Catalog.WindowWeeks < 0 {
			errs = append(errs, "catalog.window_weeks must be >= 0")
		}
		for _, f := range c.Output.Formats {
			if !validFormats[f] {
				errs = append(errs, "output.formats: unknown format "+f)
			}
		}
		if c.Enrich.Enabled && c.Enrich.APIKey == "" {
			errs = append(errs, "enrich.api_key is required when enrichment is enabled")
		}
	case "lookup":
		if c.Enrich.APIKey == "" {
			errs = append(errs, "enrich.api_key is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "runs":
		if c.Store.Driver == "none" {
			errs = append(errs, "store.driver none keeps no run history")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

var validFormats = map[string]bool{"json": true, "html": true, "xlsx": true}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
