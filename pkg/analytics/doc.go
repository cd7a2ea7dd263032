// Package analytics computes dashboard and engagement metrics over the
// article counters and the raw view/like event rows.
//
// # Overview
//
// The Metrics Engine is read-only: it aggregates what pkg/engagement and
// pkg/articles have written. Dashboard totals are independent queries run
// concurrently, so a slow or failing aggregate never skews another.
//
// # Key Metrics
//
// Dashboard:
//   - Published article count, total views, total likes
//   - 5 most recently published articles
//   - Top 10 articles by views (likes break ties)
//   - Dense 7-day view trend
//
// Per-Article:
//   - Article snapshot with counters
//   - 30-day view and like trends (sparse)
//
// Engagement summary (7 or 30 days):
//   - Articles viewed, total views, unique visitors, likes
//   - Average views per visitor, rounded half-up to 2 decimals
//
// # Usage Example
//
//	service := analytics.NewService(db)
//
//	dash, err := service.Dashboard(ctx, analytics.Range30d)
//	fmt.Printf("articles=%d views=%d\n", dash.Totals.Articles, dash.Totals.Views)
//
//	summary, err := service.EngagementSummary(ctx, 7)
//	fmt.Printf("%.2f views/visitor\n", summary.AvgViewsPerVisitor)
//
// # Related Packages
//
//   - pkg/engagement: the event rows these aggregates are computed from
//   - pkg/cache: response caching for the analytics endpoints
package analytics
