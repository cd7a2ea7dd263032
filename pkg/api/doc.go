// Package api provides the HTTP REST API server for the Inkwell analytics
// and response-cache engine.
//
// # Overview
//
// This package implements the HTTP layer over the engagement event store,
// the analytics service, and the layered response cache. It exposes
// article reads (cached), engagement writes (view/like), analytics
// aggregates, and cache introspection as RESTful endpoints.
//
// # Architecture
//
// The API is built on gorilla/mux and organized into domain-specific
// handler groups:
//
//   - Articles: Cached article and category reads plus the mutating
//     endpoints that fire cache invalidation after commit
//   - Engagement: Per-visitor view recording (deduplicated per calendar
//     day) and like toggling, both transactional with the counters
//   - Analytics: Dashboard, top articles, per-article trends, and the
//     engagement summary
//   - Cache: Stats introspection
//
// # Key Types
//
// Server is the main API server that coordinates all functionality:
//
//	server := api.NewServer(db, responseCache, logger, metrics)
//	http.ListenAndServe(":8080", server)
//
// Cached GET routes are wrapped in the response cache middleware; every
// mutation invalidates the classes it can affect before responding, so a
// subsequent read never serves a stale hit from the shared tier.
//
// # Related Packages
//
//   - pkg/engagement: View/like event store and counter transactions
//   - pkg/analytics: Aggregate metric queries
//   - pkg/cache: Layered response cache and conditional requests
//   - pkg/httputil: Request parsing and response helpers
package api
