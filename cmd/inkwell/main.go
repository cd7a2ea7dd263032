package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/inkwell/pkg/api"
	"github.com/platinummonkey/inkwell/pkg/cache"
	"github.com/platinummonkey/inkwell/pkg/config"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/observability"
)

func main() {
	initDB := flag.Bool("init-db", false, "Apply migrations from -migrations-dir and exit")
	migrationsDir := flag.String("migrations-dir", "migrations", "Directory with schema SQL files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if *initDB {
		if err := applyMigrations(ctx, db, *migrationsDir); err != nil {
			logger.WithError(err).Error("Failed to apply migrations")
			os.Exit(1)
		}
		logger.Info("Schema initialized")
		return
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = openRedis(ctx, cfg, logger)
		if err != nil {
			// CacheUnavailable degrades; the server still starts.
			logger.WithError(err).Warn("Redis unreachable at startup, cache degraded")
		}
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
		metrics.StartPoolStatsCollector(ctx, db, redisClient, 15*time.Second)
	}

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize OpenTelemetry")
		os.Exit(1)
	}

	responseCache, err := buildCache(ctx, cfg, redisClient, logger, metrics)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize response cache")
		os.Exit(1)
	}

	server := api.NewServer(db, responseCache, logger, metrics)
	if cfg.Cache.WarmOnStart && responseCache != nil {
		server.WarmCache(ctx)
		logger.Info("Cache warmed")
	}

	middlewares := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		middlewares = append(middlewares, httputil.CORSMiddleware(cfg.Server.CORSOrigins))
	}
	middlewares = append(middlewares,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(1<<20),
	)
	if cfg.Server.RequestTimeout > 0 {
		middlewares = append(middlewares, httputil.TimeoutMiddleware(cfg.Server.RequestTimeout))
	}
	if redisClient != nil {
		limiter := httputil.NewVisitorRateLimiter(redisClient, nil)
		middlewares = append(middlewares, httputil.RateLimitMiddleware(limiter))
	}

	var handler http.Handler = server
	handler = httputil.Chain(middlewares...)(handler)
	if metrics != nil {
		handler = observability.HTTPMetricsMiddleware(metrics)(handler)
	}
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "inkwell-api")
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port so probes bypass the API
	// middleware chain.
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		logger.WithFields(map[string]interface{}{
			"addr":   httpServer.Addr,
			"driver": cfg.Database.Driver,
			"cache":  responseCache != nil,
		}).Info("Starting Inkwell API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown completed with errors")
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	opts.MaxRetries = cfg.Redis.MaxRetries
	opts.PoolSize = cfg.Redis.PoolSize

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Keep the client; the cache degrades per request until Redis
		// comes back.
		return client, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Infof("Connected to Redis at %s", opts.Addr)
	return client, nil
}

func buildCache(ctx context.Context, cfg *config.Config, client *redis.Client, logger *observability.Logger, metrics *observability.Metrics) (*cache.ResponseCache, error) {
	if !cfg.Cache.Enabled {
		logger.Info("Response cache disabled")
		return nil, nil
	}

	policy := cache.DefaultPolicy()
	if cfg.Cache.PolicyFile != "" {
		if err := policy.LoadFile(cfg.Cache.PolicyFile); err != nil {
			return nil, fmt.Errorf("failed to load cache policy: %w", err)
		}
		if err := policy.Watch(ctx, cfg.Cache.PolicyFile, logger); err != nil {
			logger.WithError(err).Warn("Cache policy hot reload unavailable")
		}
	}

	return cache.New(cache.Options{
		Client:    client,
		LocalSize: cfg.Cache.LocalSize,
		Policy:    policy,
		Logger:    logger,
		Metrics:   metrics,
	})
}

func applyMigrations(ctx context.Context, db *sql.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		script, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}
	return nil
}
