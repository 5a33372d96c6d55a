package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	RunLog    RunLogConfig    `yaml:"runlog" mapstructure:"runlog"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// NotionConfig holds Notion API credentials and the guide document ID.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	DocumentID string `yaml:"document_id" mapstructure:"document_id"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	Model            string `yaml:"model" mapstructure:"model"`
	ExtractMaxTokens int64  `yaml:"extract_max_tokens" mapstructure:"extract_max_tokens"`
	TagMaxTokens     int64  `yaml:"tag_max_tokens" mapstructure:"tag_max_tokens"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	SearchPageSize int    `yaml:"search_page_size" mapstructure:"search_page_size"`
	RequestDelayMS int    `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
}

// StoreConfig configures the catalog object store.
type StoreConfig struct {
	Backend    string `yaml:"backend" mapstructure:"backend"` // "local" or "s3"
	Bucket     string `yaml:"bucket" mapstructure:"bucket"`
	Region     string `yaml:"region" mapstructure:"region"`
	Prefix     string `yaml:"prefix" mapstructure:"prefix"`
	LocalDir   string `yaml:"local_dir" mapstructure:"local_dir"`
	CatalogKey string `yaml:"catalog_key" mapstructure:"catalog_key"`
}

// RunLogConfig configures the run history backend.
type RunLogConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PipelineConfig configures extraction and enrichment behavior.
type PipelineConfig struct {
	LocationContext   string `yaml:"location_context" mapstructure:"location_context"`
	EnrichmentVersion string `yaml:"enrichment_version" mapstructure:"enrichment_version"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. Resolution order
// is env var over config file over default, so secrets can come from
// the environment without a config file present.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.extract_max_tokens", 16384)
	v.SetDefault("anthropic.tag_max_tokens", 1024)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.search_page_size", 5)
	v.SetDefault("places.request_delay_ms", 200)
	v.SetDefault("store.backend", "local")
	v.SetDefault("store.local_dir", "./data")
	v.SetDefault("store.catalog_key", "catalog.json")
	v.SetDefault("runlog.driver", "sqlite")
	v.SetDefault("runlog.path", "./data/runs.db")
	v.SetDefault("pipeline.enrichment_version", "2.0")

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
