// Package articles provides the article and category store backing the
// read endpoints and the engagement counters.
//
// The package owns the articles/categories tables and exposes two kinds
// of operations: plain reads and mutations over *sql.DB, and a small set
// of transactionally composable helpers (ExistsTx, IncrementView,
// IncrementLike, DecrementLike) that run against a caller-owned *sql.Tx
// so the engagement store can update counters atomically with its event
// writes.
//
// Mutations return only after the database commit; response-cache
// invalidation is the caller's responsibility and must happen after the
// mutation returns, never before.
package articles
