package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/inkwell/pkg/articles"
	"github.com/platinummonkey/inkwell/pkg/cache"
	"github.com/platinummonkey/inkwell/pkg/engagement"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/observability"
)

// EngagementHandlers provides view and like API endpoints
type EngagementHandlers struct {
	events   *engagement.Store
	articles *articles.Store
	cache    *cache.ResponseCache
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewEngagementHandlers creates a new engagement handlers instance
func NewEngagementHandlers(events *engagement.Store, store *articles.Store, rc *cache.ResponseCache, logger *observability.Logger, metrics *observability.Metrics) *EngagementHandlers {
	return &EngagementHandlers{
		events:   events,
		articles: store,
		cache:    rc,
		logger:   logger,
		metrics:  metrics,
	}
}

// RegisterRoutes registers engagement API routes
func (h *EngagementHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/articles/{id:[0-9]+}/view", h.recordView).Methods("POST")
	r.HandleFunc("/api/v1/articles/{id:[0-9]+}/like", h.toggleLike).Methods("POST")
	r.HandleFunc("/api/v1/articles/{id:[0-9]+}/liked", h.getLiked).Methods("GET")
}

// ViewResponse is the payload for POST /api/v1/articles/{id}/view
type ViewResponse struct {
	Viewed  bool   `json:"viewed"`
	Message string `json:"message"`
}

// LikeResponse is the payload for POST /api/v1/articles/{id}/like
type LikeResponse struct {
	Liked   bool   `json:"liked"`
	Message string `json:"message"`
}

// LikedResponse is the payload for GET /api/v1/articles/{id}/liked
type LikedResponse struct {
	Liked bool `json:"liked"`
}

// recordView handles POST /api/v1/articles/{id}/view
func (h *EngagementHandlers) recordView(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	viewed, err := h.events.RecordView(r.Context(), id, visitorFingerprint(r), r.UserAgent())
	if err != nil {
		h.countEngagement("record_view", "error", start)
		h.writeEngagementError(w, err)
		return
	}

	resp := ViewResponse{Viewed: viewed, Message: "Already viewed today"}
	if viewed {
		resp.Message = "View count incremented"
		h.countEngagement("record_view", "recorded", start)
		h.invalidateArticle(r.Context(), id)
	} else {
		h.countEngagement("record_view", "duplicate", start)
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// toggleLike handles POST /api/v1/articles/{id}/like
func (h *EngagementHandlers) toggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	liked, err := h.events.ToggleLike(r.Context(), id, visitorFingerprint(r), r.UserAgent())
	if err != nil {
		h.countEngagement("toggle_like", "error", start)
		h.writeEngagementError(w, err)
		return
	}

	resp := LikeResponse{Liked: liked, Message: "Article unliked"}
	result := "unliked"
	if liked {
		resp.Message = "Article liked"
		result = "liked"
	}
	h.countEngagement("toggle_like", result, start)
	h.invalidateArticle(r.Context(), id)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// getLiked handles GET /api/v1/articles/{id}/liked
func (h *EngagementHandlers) getLiked(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	liked, err := h.events.HasLiked(r.Context(), id, visitorFingerprint(r))
	if err != nil {
		h.writeEngagementError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LikedResponse{Liked: liked})
}

// invalidateArticle drops every cached response a counter change can
// affect: the article itself (by ID and slug), article listings, and the
// analytics aggregates. Called only after the transaction committed.
func (h *EngagementHandlers) invalidateArticle(ctx context.Context, id int64) {
	if h.cache == nil {
		return
	}

	h.cache.InvalidateArticle(ctx, id)
	if slug, err := h.articles.SlugByID(ctx, id); err == nil {
		h.cache.InvalidateSlug(ctx, slug)
	}
	h.cache.InvalidateArticles(ctx)
	h.cache.InvalidateAnalytics(ctx)
}

func (h *EngagementHandlers) writeEngagementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engagement.ErrArticleNotFound):
		httputil.WriteNotFoundError(w, "Article not found")
	case errors.Is(err, engagement.ErrValidation):
		httputil.WriteBadRequest(w, err.Error())
	default:
		if h.logger != nil {
			h.logger.WithError(err).Error("Engagement operation failed")
		}
		httputil.WriteInternalError(w, errors.New("internal server error"))
	}
}

func (h *EngagementHandlers) countEngagement(operation, result string, start time.Time) {
	if h.metrics == nil {
		return
	}
	switch operation {
	case "record_view":
		h.metrics.ViewEventsTotal.WithLabelValues(result).Inc()
	case "toggle_like":
		h.metrics.LikeEventsTotal.WithLabelValues(result).Inc()
	}
	h.metrics.EngagementDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// visitorFingerprint derives the opaque visitor identity from the client
// network address: the first X-Forwarded-For hop when present, otherwise
// the RemoteAddr host.
func visitorFingerprint(r *http.Request) string {
	return httputil.ClientKey(r)
}
