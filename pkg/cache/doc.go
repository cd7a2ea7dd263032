// Package cache provides the layered, invalidation-aware response cache
// for the read-heavy endpoints, plus the conditional-request (ETag)
// filter layered on top of it.
//
// # Overview
//
// Responses are cached per route class in Redis with a per-class TTL
// (short 5m / medium 30m / long 60m by default, configurable through a
// YAML policy file with hot reload). A small in-process LRU sits in
// front of Redis as a hot tier. Expiry is evaluated lazily on access;
// there is no background sweeper.
//
// # Keys
//
// Cache keys are a pure function of route class, route identity and the
// recognized query parameters for that class, sorted for order
// independence. Unrecognized parameters are ignored, so logically
// identical requests collide on the same key by design.
//
// # Invalidation
//
// Mutations elsewhere in the system call the invalidation hooks after
// their database commit: a full flush for the articles-list class, a
// targeted single-key delete for by-id/by-slug, and a prefix scan for
// the analytics class. The local tier is purged on every invalidation.
//
// # Failure Semantics
//
// A cache backend failure is never surfaced to the client: reads fall
// through to the origin and writes are dropped, with a warning logged
// and an error counter bumped.
//
// # Usage Example
//
//	policy := cache.DefaultPolicy()
//	rc, err := cache.New(cache.Options{Client: redisClient, Policy: policy, Logger: logger})
//
//	r.Handle("/api/v1/articles",
//		rc.Middleware(cache.ClassArticlesList, nil)(http.HandlerFunc(listArticles))).Methods("GET")
//
//	// after an article update commits:
//	rc.InvalidateArticle(ctx, id)
//	rc.InvalidateArticles(ctx)
//	rc.InvalidateAnalytics(ctx)
//
// # Related Packages
//
//   - pkg/api: wires the middleware and invalidation hooks to routes
//   - pkg/observability: cache hit/miss/eviction metrics
package cache
