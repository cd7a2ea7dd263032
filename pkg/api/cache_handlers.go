package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/inkwell/pkg/cache"
	"github.com/platinummonkey/inkwell/pkg/httputil"
)

// CacheHandlers exposes response cache introspection endpoints
type CacheHandlers struct {
	cache *cache.ResponseCache
}

// NewCacheHandlers creates a new cache handlers instance
func NewCacheHandlers(rc *cache.ResponseCache) *CacheHandlers {
	return &CacheHandlers{cache: rc}
}

// RegisterRoutes registers cache API routes
func (h *CacheHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/cache/stats", h.getStats).Methods("GET")
}

// getStats handles GET /api/v1/cache/stats
func (h *CacheHandlers) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		// The shared tier being down degrades the stats, not the request.
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"degraded": true})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
