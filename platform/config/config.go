// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// RecordServiceConfig provides settings for the Record Service client.
type RecordServiceConfig interface {
	GetRecordServiceBaseURL() string
	GetRecordServiceTimeout() time.Duration
	GetCSRFTokenURL() string
}

// ImportConfig provides settings for CSV import pacing.
type ImportConfig interface {
	GetImportRatePerSecond() float64
	GetImportBurst() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RecordServiceBaseURL string
	RecordServiceTimeout time.Duration
	CSRFTokenURL         string
	ImportRatePerSecond  float64
	ImportBurst          int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// RecordServiceConfig implementation
func (c *Config) GetRecordServiceBaseURL() string        { return c.RecordServiceBaseURL }
func (c *Config) GetRecordServiceTimeout() time.Duration { return c.RecordServiceTimeout }
func (c *Config) GetCSRFTokenURL() string                { return c.CSRFTokenURL }

// ImportConfig implementation
func (c *Config) GetImportRatePerSecond() float64 { return c.ImportRatePerSecond }
func (c *Config) GetImportBurst() int             { return c.ImportBurst }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RecordServiceBaseURL: getEnv("RECORD_SERVICE_URL", ""),
		RecordServiceTimeout: mustDuration(getEnv("RECORD_SERVICE_TIMEOUT", "10s")),
		CSRFTokenURL:         getEnv("CSRF_TOKEN_URL", ""),
		ImportRatePerSecond:  mustFloat(getEnv("IMPORT_RATE_PER_SECOND", "5")),
		ImportBurst:          int(mustInt64(getEnv("IMPORT_BURST", "1"))),
	}

	if cfg.RecordServiceBaseURL == "" {
		return nil, fmt.Errorf("RECORD_SERVICE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CSRFTokenURL == "" {
		cfg.CSRFTokenURL = strings.TrimRight(cfg.RecordServiceBaseURL, "/") + "/csrf-token"
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.ImportRatePerSecond <= 0 {
		return nil, fmt.Errorf("IMPORT_RATE_PER_SECOND must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
