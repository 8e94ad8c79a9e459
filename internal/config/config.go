package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/acuityprep/blueprint-cli/internal/pipeline"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig           `yaml:"store" mapstructure:"store"`
	Matcher MatcherConfig         `yaml:"matcher" mapstructure:"matcher"`
	Proxy   pipeline.ProxyBuckets `yaml:"proxy" mapstructure:"proxy"`
	Batch   BatchConfig           `yaml:"batch" mapstructure:"batch"`
	Server  ServerConfig          `yaml:"server" mapstructure:"server"`
	Log     LogConfig             `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the session store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// MatcherConfig tunes label canonicalization.
type MatcherConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentRows int `yaml:"max_concurrent_rows" mapstructure:"max_concurrent_rows"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int     `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "blueprint.db")
	v.SetDefault("matcher.fuzzy_threshold", 0.84)
	v.SetDefault("proxy.below", pipeline.DefaultProxyBuckets.Below)
	v.SetDefault("proxy.average", pipeline.DefaultProxyBuckets.Average)
	v.SetDefault("proxy.above", pipeline.DefaultProxyBuckets.Above)
	v.SetDefault("batch.max_concurrent_rows", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 10)
	v.SetDefault("server.rate_limit_burst", 20)
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

// Validate checks invariants that config files commonly get wrong.
func (c *Config) Validate() error {
	if c.Matcher.FuzzyThreshold < 0 || c.Matcher.FuzzyThreshold > 1 {
		return eris.Errorf("config: matcher.fuzzy_threshold %v outside [0,1]", c.Matcher.FuzzyThreshold)
	}
	for _, b := range []float64{c.Proxy.Below, c.Proxy.Average, c.Proxy.Above} {
		if b < 0 || b > 1 {
			return eris.Errorf("config: proxy bucket %v outside [0,1]", b)
		}
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
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
