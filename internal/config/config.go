// Package config loads service configuration from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/career-metric/internal/scoring"
	"github.com/spf13/viper"
)

// Config is the complete service configuration. It is built once at startup
// and not modified afterwards.
type Config struct {
	Port        int             `mapstructure:"port"`
	DatabaseURL string          `mapstructure:"database_url"`
	Debug       bool            `mapstructure:"debug"`
	JSON        bool            `mapstructure:"json"`
	Database    DatabaseConfig  `mapstructure:"database"`
	GitHub      GitHubConfig    `mapstructure:"github"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Weights     scoring.Weights `mapstructure:"weights"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// DatabaseConfig tunes the connection pool.
type DatabaseConfig struct {
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// GitHubConfig configures the GitHub collector.
type GitHubConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DefaultLimit  int           `mapstructure:"default_limit"`
	DefaultWindow time.Duration `mapstructure:"default_window"`
	Whitelist     []string      `mapstructure:"whitelist"`
	Blacklist     []string      `mapstructure:"blacklist"`
}

// SetDefaults registers every key with its default so environment variables
// can override any of them.
func SetDefaults(v *viper.Viper) {
	weights := scoring.DefaultWeights()

	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "")
	v.SetDefault("debug", false)
	v.SetDefault("json", false)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.timeout", 10*time.Second)
	v.SetDefault("github.token", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("weights.academic", weights.Academic)
	v.SetDefault("weights.technical", weights.Technical)
	v.SetDefault("weights.soft_skills", weights.SoftSkills)
	v.SetDefault("weights.experience", weights.Experience)
	v.SetDefault("weights.integrations", weights.Integrations)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", time.Minute)
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})
}

// Load reads configuration into an immutable Config. configFile is optional;
// environment variables use the key with dots replaced by underscores
// (JWT_SECRET, GITHUB_TIMEOUT, WEIGHTS_ACADEMIC).
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. Required secrets are checked by the commands
// that need them.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("config error: 'github.timeout' must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < 0 {
		return fmt.Errorf("config error: database pool sizes must be non-negative")
	}
	if c.Database.MaxConns > 0 && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("config error: 'database.min_conns' exceeds 'database.max_conns'")
	}
	if err := validateWeights(c.Weights); err != nil {
		return err
	}
	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit < 0 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("config error: rate limit defaults must be non-negative with a positive window")
	}
	return nil
}

func validateWeights(w scoring.Weights) error {
	for _, c := range scoring.Categories() {
		if w.For(c) < 0 {
			return fmt.Errorf("config error: 'weights.%s' must be non-negative", c)
		}
	}
	if w.Sum() <= 0 {
		return errors.New("config error: weights must have a positive sum")
	}
	return nil
}

// RequireDatabase reports an error if no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required but not set")
	}
	return nil
}
