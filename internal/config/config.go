package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds process-level configuration, resolved from environment
// variables with sensible defaults. Roster rules live in their own YAML
// files under RulesDir, not here.
type Config struct {
	Port     string
	Env      string
	LogLevel string
	RulesDir string

	RedisURL string
	CacheTTL time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8082")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("RULES_DIR", "rules")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "15m")

	ttl, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	return &Config{
		Port:     v.GetString("PORT"),
		Env:      v.GetString("ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		RulesDir: v.GetString("RULES_DIR"),
		RedisURL: v.GetString("REDIS_URL"),
		CacheTTL: ttl,
	}, nil
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}
