package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	NameCacheTTL      time.Duration `mapstructure:"NAME_CACHE_TTL"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	LogDevelopment    bool          `mapstructure:"LOG_DEVELOPMENT"`
	ConflictRetries   int           `mapstructure:"CONFLICT_RETRIES"`
	FanoutConcurrency int           `mapstructure:"FANOUT_CONCURRENCY"`
	AdminIDs          string        `mapstructure:"ADMIN_IDS"`
}

var defaults = map[string]any{
	"DATABASE_URL":       "",
	"JWT_SECRET":         "",
	"HTTP_ADDR":          ":8080",
	"REDIS_ADDR":         "",
	"NAME_CACHE_TTL":     "10m",
	"LOG_LEVEL":          "info",
	"LOG_DEVELOPMENT":    false,
	"CONFLICT_RETRIES":   3,
	"FANOUT_CONCURRENCY": 8,
	"ADMIN_IDS":          "",
}

// Load reads a .env file from dir (if present) and the environment.
// Environment variables take precedence over the file.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if cfg.ConflictRetries < 0 {
		return nil, fmt.Errorf("CONFLICT_RETRIES must not be negative, got %d", cfg.ConflictRetries)
	}
	if cfg.FanoutConcurrency < 1 {
		return nil, fmt.Errorf("FANOUT_CONCURRENCY must be at least 1, got %d", cfg.FanoutConcurrency)
	}
	return &cfg, nil
}

// Admins returns the ids allowed to call the admin routes.
func (c *Config) Admins() []string {
	var ids []string
	for _, id := range strings.Split(c.AdminIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
