// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and validates them as a whole.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir        string // Root directory for the database or JSON files
	StorageBackend string // "sqlite" or "file"
	CatalogPath    string // Requirements catalog file; empty = embedded default

	// Per-user Rate Limit (Token Bucket)
	UserRateBurst  float64 // Maximum burst requests per user (default: 30)
	UserRateRefill float64 // Requests refilled per second (default: 1)

	// Metrics Authentication (empty password = no auth)
	MetricsUsername string
	MetricsPassword string

	// Sentry
	SentryEnabled     bool
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Logs
	BetterStackToken    string
	BetterStackEndpoint string

	// R2 Backup
	R2Enabled         bool
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2BackupKey       string
	R2BackupInterval  time.Duration
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:        getEnv(EnvDataDir, getDefaultDataDir()),
		StorageBackend: strings.ToLower(getEnv(EnvStorageBackend, BackendSQLite)),
		CatalogPath:    getEnv(EnvCatalogPath, ""),

		UserRateBurst:  getFloatEnv(EnvUserRateBurst, 30),
		UserRateRefill: getFloatEnv(EnvUserRateRefill, 1),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryEnabled:     getBoolEnv(EnvSentryEnabled, false),
		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2BackupKey:       getEnv(EnvR2BackupKey, "backups/planner.db.zst"),
		R2BackupInterval:  getDurationEnv(EnvR2BackupInterval, BackupInterval),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration values and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	} else if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a port number, got %q", EnvPort, c.Port))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.StorageBackend != BackendSQLite && c.StorageBackend != BackendFile {
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q",
			EnvStorageBackend, BackendSQLite, BackendFile, c.StorageBackend))
	}
	if c.UserRateBurst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %v", EnvUserRateBurst, c.UserRateBurst))
	}
	if c.UserRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateRefill, c.UserRateRefill))
	}

	if c.SentryEnabled {
		if c.SentryToken == "" {
			errs = append(errs, fmt.Errorf("%s is required when Sentry is enabled", EnvSentryToken))
		}
		if c.SentryHost == "" {
			errs = append(errs, fmt.Errorf("%s is required when Sentry is enabled", EnvSentryHost))
		}
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be between 0 and 1, got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}

	if c.R2Enabled {
		if c.StorageBackend != BackendSQLite {
			errs = append(errs, fmt.Errorf("R2 backup requires the %q storage backend", BackendSQLite))
		}
		required := map[string]string{
			EnvR2AccountID:       c.R2AccountID,
			EnvR2AccessKeyID:     c.R2AccessKeyID,
			EnvR2SecretAccessKey: c.R2SecretAccessKey,
			EnvR2BucketName:      c.R2BucketName,
			EnvR2BackupKey:       c.R2BackupKey,
		}
		for _, key := range []string{EnvR2AccountID, EnvR2AccessKeyID, EnvR2SecretAccessKey, EnvR2BucketName, EnvR2BackupKey} {
			if required[key] == "" {
				errs = append(errs, fmt.Errorf("%s is required when R2 is enabled", key))
			}
		}
		if c.R2BackupInterval < time.Minute {
			errs = append(errs, fmt.Errorf("%s must be at least 1m, got %v", EnvR2BackupInterval, c.R2BackupInterval))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "planner.db")
}

// MetricsAuthEnabled reports whether /metrics and admin routes require Basic Auth.
func (c *Config) MetricsAuthEnabled() bool {
	return c.MetricsPassword != ""
}

// R2Endpoint returns the S3-compatible endpoint for the configured account.
func (c *Config) R2Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}
