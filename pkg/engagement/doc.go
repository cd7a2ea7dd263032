// Package engagement records per-visitor view and like events and keeps
// the denormalized article counters in lock-step with the event rows.
//
// # Overview
//
// Every qualifying view inserts a ViewEvent and increments the article's
// view_count inside one transaction; likes toggle a LikeEvent row and the
// like_count the same way. The event rows are the source of truth, the
// counters are a denormalization that must never diverge from them.
//
// # Deduplication
//
// Views are deduplicated per (article, visitor fingerprint, UTC calendar
// day) through a unique index, so two concurrent requests from the same
// visitor can never double-count: one insert wins, the other observes a
// conflict and reports recorded=false. Likes are binary per (article,
// visitor fingerprint); toggling deletes or re-creates the row.
//
// # Usage Example
//
//	store := engagement.NewStore(db)
//
//	recorded, err := store.RecordView(ctx, articleID, fingerprint, userAgent)
//	liked, err := store.ToggleLike(ctx, articleID, fingerprint, userAgent)
//
//	trend, err := store.ViewTrend(ctx, articleID, 30)
//	for _, p := range trend {
//		fmt.Printf("%s: %d views\n", p.Date, p.Count)
//	}
//
// # Related Packages
//
//   - pkg/analytics: dashboard metrics computed over the event rows
//   - pkg/articles: the article rows whose counters this package maintains
package engagement
