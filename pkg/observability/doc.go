// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, and distributed tracing integration.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.Infof("Server started on port %d", 8080)
//
// Context-aware logging:
//
//	logger.WithField("request_id", reqID).WithError(err).Error("Request failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(registry)
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/articles", "200").Inc()
//	metrics.CacheHitsTotal.WithLabelValues("articles-list", "redis").Inc()
//
// Business metrics:
//
//	metrics.ArticlesTotal.Set(float64(count))
//	metrics.ViewsTotal.Set(float64(views))
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	status := checker.Check(ctx)
//	fmt.Printf("Status: %s\n", status.Status)
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:        true,
//		ServiceName:    "inkwell-api",
//		ServiceVersion: "v1.0.0",
//		Endpoint:       "otel-collector:4317",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
