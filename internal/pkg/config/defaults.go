package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = 15 * time.Second

	// Discord defaults
	DefaultRateLimitPreference = "respect-all"

	// Export defaults
	DefaultExportFormat = "htmldark"
	DefaultLocale       = "en-US"
	DefaultParallelism  = 1

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
