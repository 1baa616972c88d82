// Package config provides environment-based configuration for the docsign service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	// Database configuration
	DatabaseDSN string

	// Staff session authentication
	JWTSecret string
	JWTExpiry time.Duration

	// TokenHashKey keys the HMAC under which signer capability tokens are
	// stored. Rotating it invalidates all outstanding tokens.
	TokenHashKey string

	// EnvelopeTTL is the default envelope lifetime when a create request
	// does not pass one.
	EnvelopeTTL time.Duration

	// Server configuration
	APIHost string
	APIPort int

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. When DOCSIGN_CONFIG points
// at a YAML file, values from the file are applied first and the environment
// overrides them.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN:     "postgres://localhost:5432/docsign?sslmode=disable",
		JWTExpiry:       24 * time.Hour,
		EnvelopeTTL:     14 * 24 * time.Hour,
		APIHost:         "0.0.0.0",
		APIPort:         8080,
		ShutdownTimeout: 30 * time.Second,
	}

	if path := os.Getenv("DOCSIGN_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.DatabaseDSN = getEnv("DATABASE_URL", cfg.DatabaseDSN)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTExpiry = getDurationEnv("JWT_EXPIRY", cfg.JWTExpiry)
	cfg.TokenHashKey = getEnv("TOKEN_HASH_KEY", cfg.TokenHashKey)
	cfg.EnvelopeTTL = getDurationEnv("ENVELOPE_TTL", cfg.EnvelopeTTL)
	cfg.APIHost = getEnv("API_HOST", cfg.APIHost)
	cfg.APIPort = getIntEnv("API_PORT", cfg.APIPort)
	cfg.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fileConfig mirrors Config for the YAML overlay; durations are written as
// strings ("24h", "30s") and parsed explicitly.
type fileConfig struct {
	DatabaseDSN     string `yaml:"database_dsn"`
	JWTSecret       string `yaml:"jwt_secret"`
	JWTExpiry       string `yaml:"jwt_expiry"`
	TokenHashKey    string `yaml:"token_hash_key"`
	EnvelopeTTL     string `yaml:"envelope_ttl"`
	APIHost         string `yaml:"api_host"`
	APIPort         int    `yaml:"api_port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.DatabaseDSN != "" {
		c.DatabaseDSN = fc.DatabaseDSN
	}
	if fc.JWTSecret != "" {
		c.JWTSecret = fc.JWTSecret
	}
	if fc.TokenHashKey != "" {
		c.TokenHashKey = fc.TokenHashKey
	}
	if fc.APIHost != "" {
		c.APIHost = fc.APIHost
	}
	if fc.APIPort != 0 {
		c.APIPort = fc.APIPort
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.JWTExpiry, &c.JWTExpiry},
		{fc.EnvelopeTTL, &c.EnvelopeTTL},
		{fc.ShutdownTimeout, &c.ShutdownTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parsing duration in config file %s: %w", path, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.TokenHashKey == "" {
		return fmt.Errorf("TOKEN_HASH_KEY is required")
	}
	if len(c.TokenHashKey) < 32 {
		return fmt.Errorf("TOKEN_HASH_KEY must be at least 32 characters")
	}
	if c.EnvelopeTTL <= 0 {
		return fmt.Errorf("ENVELOPE_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
