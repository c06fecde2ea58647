// Package config loads server settings from MINDSPACE_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const prefix = "MINDSPACE"

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Storage backends accepted by DB_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// DevJWTSecret is the default signing secret. It is refused in production.
const DevJWTSecret = "mindspace-dev-secret-change-me"

type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	Port        int         `envconfig:"PORT" default:"8080"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// DBDriver selects the mood store: sqlite or mongo.
	DBDriver      string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath        string `envconfig:"DB_PATH" default:"data/mindspace.db"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"mindspace"`

	// Empty RedisURL keeps the aggregate cache in process.
	RedisURL string        `envconfig:"REDIS_URL" default:""`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"mindspace-dev-secret-change-me"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Timezone is the IANA zone that defines calendar days.
	Timezone          string `envconfig:"TIMEZONE" default:"Local"`
	StreakHorizonDays int    `envconfig:"STREAK_HORIZON_DAYS" default:"30"`

	// AIProvider is openai, anthropic or empty to disable insights.
	AIProvider string `envconfig:"AI_PROVIDER" default:""`
	AIAPIKey   string `envconfig:"AI_API_KEY" default:""`
	AIModel    string `envconfig:"AI_MODEL" default:""`
	AIEndpoint string `envconfig:"AI_ENDPOINT" default:""`
}

// New parses the environment and validates the result.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Environment == EnvProduction && c.JWTSecret == DevJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL: %s", c.TokenTTL)
	}
	if c.StreakHorizonDays < 1 {
		return fmt.Errorf("STREAK_HORIZON_DAYS must be positive, got %d", c.StreakHorizonDays)
	}
	switch c.AIProvider {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER: %s", c.AIProvider)
	}
	if c.AIProvider != "" && c.AIAPIKey == "" {
		return fmt.Errorf("AI_API_KEY is required when AI_PROVIDER is %s", c.AIProvider)
	}
	return nil
}

// Location resolves Timezone. "Local" and "" mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Log writes the effective settings without secrets.
func (c *Config) Log(logger zerolog.Logger) {
	logger.Info().
		Str("environment", string(c.Environment)).
		Int("port", c.Port).
		Str("db_driver", c.DBDriver).
		Str("timezone", c.Timezone).
		Bool("redis_cache", c.RedisURL != "").
		Str("ai_provider", c.AIProvider).
		Int("streak_horizon_days", c.StreakHorizonDays).
		Msg("configuration loaded")
}
