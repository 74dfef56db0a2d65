// Package config provides centralized timeout constants for the application.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Request bodies are small JSON
	// documents.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second

	// RequestProcessing bounds a single API request, including the wait for
	// the per-user lock.
	RequestProcessing = 15 * time.Second

	// ReadinessCheckTimeout bounds the database ping done by /readyz.
	ReadinessCheckTimeout = 2 * time.Second
)

// Catalog timeouts
const (
	// CatalogReload bounds reading and validating a requirements catalog.
	CatalogReload = 30 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// BackupInterval is the default period between R2 backups.
	BackupInterval = 6 * time.Hour

	// BackupTimeout bounds one snapshot, compress and upload cycle.
	BackupTimeout = 10 * time.Minute

	// BackupInitialDelay lets the server settle before the first backup.
	BackupInitialDelay = 2 * time.Minute

	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second

	// SentryFlush bounds how long shutdown waits for queued error reports.
	SentryFlush = 5 * time.Second
)
