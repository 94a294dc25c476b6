// Package config loads and validates the CodeScope runtime configuration.
//
// All settings come from environment variables (a .env file is loaded by the
// entrypoint before this package runs). GEMINI_API_KEY is the only secret the
// service requires; startup fails fast when it is missing so a misconfigured
// deployment never serves traffic that silently fails per request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"codescope/internal/logging"

	"go.uber.org/zap"
)

// Environment constants
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// DefaultModelRoster is the ordered fallback roster: fastest/cheapest first,
// most capable or experimental last. Order encodes priority; duplicates are
// allowed.
var DefaultModelRoster = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-exp",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-2.5-pro-exp",
}

// Config holds the full application configuration.
type Config struct {
	Port        string
	Environment string

	// Generation service
	GeminiAPIKey   string
	ModelRoster    []string
	RequestTimeout time.Duration

	// Local outbound rate limiting per roster candidate. Zero disables the
	// limiters; when enabled an exhausted bucket advances the roster without
	// calling the generation service.
	AIRateLimitPerMinute int
	AIRateLimitBurst     int

	// Persistence
	DatabaseURL string // PostgreSQL DSN; SQLite is used when empty
	SQLitePath  string

	// Optional analysis-result cache
	RedisURL string
	CacheTTL time.Duration
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", EnvDevelopment),
		GeminiAPIKey:         strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		ModelRoster:          parseRoster(os.Getenv("GEMINI_MODELS")),
		RequestTimeout:       getDuration("GEMINI_REQUEST_TIMEOUT", 60*time.Second),
		AIRateLimitPerMinute: getInt("AI_RATE_LIMIT_PER_MINUTE", 0),
		AIRateLimitBurst:     getInt("AI_RATE_LIMIT_BURST", 1),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getEnv("SQLITE_PATH", "codescope.db"),
		RedisURL:             os.Getenv("REDIS_URL"),
		CacheTTL:             getDuration("CACHE_TTL", 15*time.Minute),
	}
	if cfg.AIRateLimitBurst < 1 {
		cfg.AIRateLimitBurst = 1
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if len(c.ModelRoster) == 0 {
		return fmt.Errorf("model roster is empty")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// parseRoster splits a comma-separated model list, falling back to the
// default roster when unset. Blank entries are dropped, order is preserved.
func parseRoster(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		roster := make([]string, len(DefaultModelRoster))
		copy(roster, DefaultModelRoster)
		return roster
	}

	var roster []string
	for _, part := range strings.Split(raw, ",") {
		if model := strings.TrimSpace(part); model != "" {
			roster = append(roster, model)
		}
	}
	return roster
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logging.L().Warn("unparseable duration, using default",
			zap.String("var", key),
			zap.String("value", v),
			zap.Duration("default", fallback))
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.L().Warn("unparseable integer, using default",
			zap.String("var", key),
			zap.String("value", v),
			zap.Int("default", fallback))
		return fallback
	}
	return n
}
