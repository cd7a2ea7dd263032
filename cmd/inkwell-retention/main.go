package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/inkwell/pkg/analytics"
	"github.com/platinummonkey/inkwell/pkg/observability"
)

var (
	dbDriver    = flag.String("db-driver", getEnv("INKWELL_DB_DRIVER", "postgres"), "Database driver (postgres, sqlite3)")
	dbURL       = flag.String("db-url", getEnv("INKWELL_DB_URL", "postgres://localhost/inkwell?sslmode=disable"), "Database connection URL")
	schedule    = flag.String("schedule", getEnv("INKWELL_RETENTION_SCHEDULE", "0 3 * * *"), "Cron schedule for the retention sweep (default: 03:00 UTC)")
	horizonDays = flag.Int("horizon-days", getEnvInt("INKWELL_RETENTION_VIEW_EVENT_DAYS", 365), "Delete view events older than this many days")
	metricsPort = flag.String("metrics-port", getEnv("INKWELL_RETENTION_METRICS_PORT", ""), "Port for the /metrics endpoint (empty disables)")
	runOnce     = flag.Bool("run-once", false, "Run one sweep and exit")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if *horizonDays <= 0 {
		logger.Fatalf("horizon-days must be positive, got %d", *horizonDays)
	}

	db, err := sql.Open(*dbDriver, *dbURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.WithError(err).Fatal("Failed to ping database")
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	if *metricsPort != "" {
		go serveMetrics(*metricsPort, registry, logger)
	}

	retention := analytics.NewRetention(db)
	sweep := func() {
		start := time.Now()
		purged, err := retention.PurgeViewEvents(context.Background(), *horizonDays)
		if err != nil {
			logger.WithError(err).Error("Retention sweep failed")
			return
		}
		metrics.RetentionPurgedTotal.Add(float64(purged))
		metrics.RetentionDuration.Observe(time.Since(start).Seconds())
		logger.WithFields(logrus.Fields{
			"purged":       purged,
			"horizon_days": *horizonDays,
			"duration":     time.Since(start).String(),
		}).Info("Retention sweep completed")
	}

	if *runOnce {
		sweep()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, sweep); err != nil {
		logger.WithError(err).Fatalf("Failed to schedule retention sweep (%s)", *schedule)
	}

	c.Start()
	logger.WithFields(logrus.Fields{
		"schedule":     *schedule,
		"horizon_days": *horizonDays,
	}).Info("Inkwell retention sweeper started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down gracefully...")

	ctx := c.Stop()
	<-ctx.Done()
	logger.Info("Retention sweeper stopped")
}

func serveMetrics(port string, registry *prometheus.Registry, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.WithError(err).Error("Metrics server failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
