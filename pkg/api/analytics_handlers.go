package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/inkwell/pkg/analytics"
	"github.com/platinummonkey/inkwell/pkg/articles"
	"github.com/platinummonkey/inkwell/pkg/cache"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/observability"
)

// AnalyticsHandlers provides analytics API endpoints
type AnalyticsHandlers struct {
	service *analytics.Service
	cache   *cache.ResponseCache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewAnalyticsHandlers creates a new analytics handlers instance
func NewAnalyticsHandlers(service *analytics.Service, rc *cache.ResponseCache, logger *observability.Logger, metrics *observability.Metrics) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		service: service,
		cache:   rc,
		logger:  logger,
		metrics: metrics,
	}
}

// RegisterRoutes registers analytics API routes
func (h *AnalyticsHandlers) RegisterRoutes(r *mux.Router) {
	r.Handle("/api/v1/analytics/dashboard",
		cached(h.cache, cache.ClassDashboard, nil, h.getDashboard)).Methods("GET")
	r.Handle("/api/v1/analytics/articles/top",
		cached(h.cache, cache.ClassTopArticles, nil, h.getTopArticles)).Methods("GET")

	// Per-article analytics and the engagement summary are uncached: both
	// are operator-facing and expected to reflect the latest events.
	r.HandleFunc("/api/v1/analytics/articles/{id:[0-9]+}", h.getArticleAnalytics).Methods("GET")
	r.HandleFunc("/api/v1/analytics/engagement", h.getEngagementSummary).Methods("GET")
}

// getDashboard handles GET /api/v1/analytics/dashboard
// Query params:
//   - range: Time window for top articles (7d, 30d, all) - default: 30d
func (h *AnalyticsHandlers) getDashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := analytics.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), rng)
	if err != nil {
		h.writeAnalyticsError(w, err)
		return
	}

	// Dashboard computation is the one place the site-wide totals are
	// already aggregated; publish them as gauges while they are fresh.
	if h.metrics != nil {
		h.metrics.ArticlesTotal.Set(float64(dashboard.Totals.Articles))
		h.metrics.ViewsTotal.Set(float64(dashboard.Totals.Views))
		h.metrics.LikesTotal.Set(float64(dashboard.Totals.Likes))
	}

	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

// getTopArticles handles GET /api/v1/analytics/articles/top
// Query params:
//   - limit: Number of results (1-100) - default: 10
//   - range: Time window (7d, 30d, all) - default: 30d
func (h *AnalyticsHandlers) getTopArticles(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", 10)
	if err != nil {
		httputil.WriteBadRequest(w, "limit must be an integer")
		return
	}

	rng, err := analytics.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	top, err := h.service.TopArticles(r.Context(), limit, rng)
	if err != nil {
		h.writeAnalyticsError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"articles": top})
}

// getArticleAnalytics handles GET /api/v1/analytics/articles/{id}
// Returns the article snapshot plus 30-day view and like trends
func (h *AnalyticsHandlers) getArticleAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.service.ArticleAnalytics(r.Context(), id)
	if err != nil {
		h.writeAnalyticsError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// getEngagementSummary handles GET /api/v1/analytics/engagement
// Query params:
//   - days: Summary window, 7 or 30 - default: 7
func (h *AnalyticsHandlers) getEngagementSummary(w http.ResponseWriter, r *http.Request) {
	days, err := httputil.ParseQueryInt(r, "days", 7)
	if err != nil {
		httputil.WriteBadRequest(w, "days must be an integer")
		return
	}

	summary, err := h.service.EngagementSummary(r.Context(), days)
	if err != nil {
		h.writeAnalyticsError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *AnalyticsHandlers) writeAnalyticsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, articles.ErrNotFound):
		httputil.WriteNotFoundError(w, "Article not found")
	case errors.Is(err, analytics.ErrValidation):
		httputil.WriteBadRequest(w, err.Error())
	default:
		if h.logger != nil {
			h.logger.WithError(err).Error("Analytics query failed")
		}
		httputil.WriteInternalError(w, errors.New("internal server error"))
	}
}
