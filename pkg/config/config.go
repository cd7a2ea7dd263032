package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/inkwell/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Cache configuration
	Cache CacheConfig

	// Retention configuration
	Retention RetentionConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// RequestTimeout bounds end-to-end handler time; zero disables
	RequestTimeout time.Duration

	// CORSOrigins lists allowed origins; empty disables CORS handling
	CORSOrigins []string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds relational database configuration. Driver is
// "postgres" in production; "sqlite3" is supported for local development.
type DatabaseConfig struct {
	Driver   string
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// RedisConfig holds Redis connection configuration. An empty URL
// disables the shared cache tier.
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	// Enabled turns the response cache middleware on or off
	Enabled bool

	// PolicyFile is an optional YAML file with per-class TTL overrides,
	// hot reloaded while the server runs
	PolicyFile string

	// LocalSize bounds the in-process hot tier
	LocalSize int

	// WarmOnStart pre-populates hot entries at boot
	WarmOnStart bool
}

// RetentionConfig holds view event retention configuration
type RetentionConfig struct {
	// ViewEventDays is the age past which view events are purged
	ViewEventDays int

	// Schedule is a cron expression for the retention sweeper binary
	Schedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Cache:         loadCacheConfig(),
		Retention:     loadRetentionConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("INKWELL_HOST", "0.0.0.0"),
		Port:            getEnv("INKWELL_PORT", "8080"),
		ReadTimeout:     getEnvDuration("INKWELL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("INKWELL_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("INKWELL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("INKWELL_SHUTDOWN_TIMEOUT", 30*time.Second),
		RequestTimeout:  getEnvDuration("INKWELL_REQUEST_TIMEOUT", 30*time.Second),
		CORSOrigins:     getEnvList("INKWELL_CORS_ORIGINS"),
		HealthPort:      getEnv("INKWELL_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:   getEnv("INKWELL_DB_DRIVER", "postgres"),
		URL:      getEnv("INKWELL_DB_URL", ""),
		MaxConns: getEnvInt("INKWELL_DB_MAX_CONNS", 25),
		MinConns: getEnvInt("INKWELL_DB_MIN_CONNS", 5),
		Timeout:  getEnvDuration("INKWELL_DB_TIMEOUT", 5*time.Second),
	}
}

// loadRedisConfig loads Redis configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:        getEnv("INKWELL_REDIS_URL", ""),
		Password:   getEnv("INKWELL_REDIS_PASSWORD", ""),
		DB:         getEnvInt("INKWELL_REDIS_DB", 0),
		MaxRetries: getEnvInt("INKWELL_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("INKWELL_REDIS_POOL_SIZE", 10),
	}
}

// loadCacheConfig loads response cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:     getEnvBool("INKWELL_CACHE_ENABLED", true),
		PolicyFile:  getEnv("INKWELL_CACHE_POLICY_FILE", ""),
		LocalSize:   getEnvInt("INKWELL_CACHE_LOCAL_SIZE", 512),
		WarmOnStart: getEnvBool("INKWELL_CACHE_WARM_ON_START", false),
	}
}

// loadRetentionConfig loads retention configuration from environment
func loadRetentionConfig() RetentionConfig {
	return RetentionConfig{
		ViewEventDays: getEnvInt("INKWELL_RETENTION_VIEW_EVENT_DAYS", 365),
		Schedule:      getEnv("INKWELL_RETENTION_SCHEDULE", "0 3 * * *"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("INKWELL_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("INKWELL_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("INKWELL_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("INKWELL_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("INKWELL_OTEL_SERVICE_NAME", "inkwell-api"),
		OTelServiceVersion: getEnv("INKWELL_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("INKWELL_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}

	// Validate database config
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database min connections (%d) exceeds max connections (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	// Validate retention config
	if c.Retention.ViewEventDays <= 0 {
		return fmt.Errorf("retention view event days must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable as a slice,
// or nil when unset
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
