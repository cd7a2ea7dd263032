// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	INKWELL_HOST="0.0.0.0"
//	INKWELL_PORT="8080"
//	INKWELL_HEALTH_PORT="9090"
//	INKWELL_READ_TIMEOUT="15s"
//	INKWELL_WRITE_TIMEOUT="15s"
//	INKWELL_REQUEST_TIMEOUT="30s"  # 0 disables the per-request deadline
//	INKWELL_CORS_ORIGINS=""        # comma-separated allowlist, empty disables CORS
//
// Database settings:
//
//	INKWELL_DB_DRIVER="postgres"  # postgres, sqlite3
//	INKWELL_DB_URL="postgres://localhost/inkwell"
//	INKWELL_DB_MAX_CONNS="25"
//
// Cache settings:
//
//	INKWELL_CACHE_ENABLED="true"
//	INKWELL_CACHE_POLICY_FILE="/etc/inkwell/cache-policy.yaml"
//	INKWELL_CACHE_LOCAL_SIZE="512"
//	INKWELL_REDIS_URL="redis://localhost:6379"
//	INKWELL_REDIS_POOL_SIZE="10"
//
// Retention settings:
//
//	INKWELL_RETENTION_VIEW_EVENT_DAYS="365"
//	INKWELL_RETENTION_SCHEDULE="0 3 * * *"
//
// Observability settings:
//
//	INKWELL_LOG_LEVEL="info"  # debug, info, warn, error
//	INKWELL_METRICS_ENABLED="true"
//	INKWELL_OTEL_ENABLED="true"
//	INKWELL_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Database: %s\n", cfg.Database.Driver)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/cache: Uses cache configuration
//   - pkg/observability: Uses observability configuration
package config
