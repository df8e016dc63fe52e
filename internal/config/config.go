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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Insights InsightsConfig `yaml:"insights" mapstructure:"insights"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// AuthConfig configures JWT issuance and verification.
type AuthConfig struct {
	Secret   string        `yaml:"secret" mapstructure:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// CacheConfig holds TTLs for the read-side caches.
type CacheConfig struct {
	ScorecardTTL  time.Duration `yaml:"scorecard_ttl" mapstructure:"scorecard_ttl"`
	ComplianceTTL time.Duration `yaml:"compliance_ttl" mapstructure:"compliance_ttl"`
	TasksTTL      time.Duration `yaml:"tasks_ttl" mapstructure:"tasks_ttl"`
}

// ScoringConfig points at an optional requirement catalog override. An
// empty path uses the embedded catalog.
type ScoringConfig struct {
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// InsightsConfig configures the optional Anthropic narrative generator.
type InsightsConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	Model      string `yaml:"model" mapstructure:"model"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// Enabled reports whether narrative generation is configured.
func (c InsightsConfig) Enabled() bool {
	return c.Key != ""
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the fields required by the given run mode. Errors are
// collected so a misconfigured deployment reports everything at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Auth.Secret == "" {
			problems = append(problems, "auth.secret is required")
		}
		if c.Server.RateLimitPerSec <= 0 {
			problems = append(problems, "server.rate_limit_per_sec must be > 0")
		}
	case "calculate", "report", "migrate", "seed":
		// Store checks above are sufficient.
	default:
		problems = append(problems, "unknown mode "+mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ESG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "esg.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_sec", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("cache.scorecard_ttl", "5m")
	v.SetDefault("cache.compliance_ttl", "5m")
	v.SetDefault("cache.tasks_ttl", "1m")
	v.SetDefault("insights.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("insights.max_retries", 3)
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
