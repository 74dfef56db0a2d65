// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PLANNER_PORT"
	EnvLogLevel        = "PLANNER_LOG_LEVEL"
	EnvShutdownTimeout = "PLANNER_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir        = "PLANNER_DATA_DIR"
	EnvStorageBackend = "PLANNER_STORAGE_BACKEND"
	EnvCatalogPath    = "PLANNER_CATALOG_PATH"

	// Rate Limits
	EnvUserRateBurst  = "PLANNER_USER_RATE_BURST"
	EnvUserRateRefill = "PLANNER_USER_RATE_REFILL"

	// Metrics Auth
	EnvMetricsUsername = "PLANNER_METRICS_USERNAME"
	EnvMetricsPassword = "PLANNER_METRICS_PASSWORD"

	// Sentry Feature
	EnvSentryEnabled     = "PLANNER_SENTRY_ENABLED"
	EnvSentryToken       = "PLANNER_SENTRY_TOKEN"
	EnvSentryHost        = "PLANNER_SENTRY_HOST"
	EnvSentryEnvironment = "PLANNER_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "PLANNER_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "PLANNER_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "PLANNER_BETTERSTACK_ENDPOINT"

	// R2 Backup Feature
	EnvR2Enabled         = "PLANNER_R2_ENABLED"
	EnvR2AccountID       = "PLANNER_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "PLANNER_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "PLANNER_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "PLANNER_R2_BUCKET_NAME"
	EnvR2BackupKey       = "PLANNER_R2_BACKUP_KEY"
	EnvR2BackupInterval  = "PLANNER_R2_BACKUP_INTERVAL"
)
