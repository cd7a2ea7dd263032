package observability

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheEvictionsTotal     *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec
	CacheErrorsTotal        *prometheus.CounterVec

	// Engagement metrics
	ViewEventsTotal    *prometheus.CounterVec
	LikeEventsTotal    *prometheus.CounterVec
	EngagementDuration *prometheus.HistogramVec

	// Retention metrics
	RetentionPurgedTotal prometheus.Counter
	RetentionDuration    prometheus.Histogram

	// Database metrics
	DBConnectionsActive       prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	// Redis metrics
	RedisConnectionsActive prometheus.Gauge

	// Business metrics
	ArticlesTotal prometheus.Gauge
	ViewsTotal    prometheus.Gauge
	LikesTotal    prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkwell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkwell_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkwell_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"class", "tier"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_cache_misses_total",
				Help: "Total number of response cache misses",
			},
			[]string{"class"},
		),
		CacheEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_cache_evictions_total",
				Help: "Total number of response cache evictions",
			},
			[]string{"class", "reason"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_cache_invalidations_total",
				Help: "Total number of explicit cache invalidations",
			},
			[]string{"class"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_cache_errors_total",
				Help: "Total number of cache backend errors",
			},
			[]string{"class", "operation"},
		),

		// Engagement metrics
		ViewEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_view_events_total",
				Help: "Total number of view recording attempts",
			},
			[]string{"result"},
		),
		LikeEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_like_events_total",
				Help: "Total number of like toggle operations",
			},
			[]string{"result"},
		),
		EngagementDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkwell_engagement_duration_seconds",
				Help:    "Engagement operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Retention metrics
		RetentionPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inkwell_retention_purged_events_total",
				Help: "Total number of view events removed by retention",
			},
		),
		RetentionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inkwell_retention_duration_seconds",
				Help:    "Retention sweep duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60},
			},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),

		// Redis metrics
		RedisConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_redis_connections_active",
				Help: "Number of active Redis connections",
			},
		),

		// Business metrics
		ArticlesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_articles_total",
				Help: "Total number of published articles",
			},
		),
		ViewsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_views_total",
				Help: "Total accumulated view count across published articles",
			},
		),
		LikesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_likes_total",
				Help: "Total accumulated like count across published articles",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheEvictionsTotal,
		m.CacheInvalidationsTotal,
		m.CacheErrorsTotal,
		m.ViewEventsTotal,
		m.LikeEventsTotal,
		m.EngagementDuration,
		m.RetentionPurgedTotal,
		m.RetentionDuration,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
		m.RedisConnectionsActive,
		m.ArticlesTotal,
		m.ViewsTotal,
		m.LikesTotal,
	)

	return m
}

// ObserveDBStats publishes the connection pool gauges from database/sql
// pool statistics.
func (m *Metrics) ObserveDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
	m.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
}

// ObserveRedisPool publishes the Redis connection gauge from client pool
// statistics.
func (m *Metrics) ObserveRedisPool(stats *redis.PoolStats) {
	if stats == nil {
		return
	}
	m.RedisConnectionsActive.Set(float64(stats.TotalConns))
}

// StartPoolStatsCollector samples database and Redis pool gauges on the
// given interval until the context is canceled. The Redis client may be
// nil when the shared cache tier is disabled.
func (m *Metrics) StartPoolStatsCollector(ctx context.Context, db *sql.DB, redisClient *redis.Client, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			m.ObserveDBStats(db.Stats())
			if redisClient != nil {
				m.ObserveRedisPool(redisClient.PoolStats())
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
