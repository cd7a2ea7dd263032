package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/inkwell/pkg/articles"
	"github.com/platinummonkey/inkwell/pkg/engagement"
)

// ErrValidation indicates a malformed metrics parameter, e.g. a
// non-positive limit or an unknown range.
var ErrValidation = errors.New("validation error")

// Service computes analytics aggregates.
type Service struct {
	db       *sql.DB
	articles *articles.Store
	events   *engagement.Store
	now      func() time.Time
}

// NewService creates a new analytics service.
func NewService(db *sql.DB) *Service {
	return &Service{
		db:       db,
		articles: articles.NewStore(db),
		events:   engagement.NewStore(db),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Totals holds the site-wide counters for published articles.
type Totals struct {
	Articles int64 `json:"articles"`
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
}

// ViewTrendPoint is one day in the dashboard view trend.
type ViewTrendPoint struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// TopArticle is one row of a top-articles listing.
type TopArticle struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	ViewCount   int64      `json:"view_count"`
	LikeCount   int64      `json:"like_count"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// DashboardResponse is the dashboard metrics payload.
type DashboardResponse struct {
	Totals         Totals              `json:"totals"`
	RecentArticles []*articles.Article `json:"recent_articles"`
	TopArticles    []TopArticle        `json:"top_articles"`
	ViewTrends     []ViewTrendPoint    `json:"view_trends"`
}

// Dashboard computes the dashboard metrics for the given range. The view
// trend always covers the last 7 days regardless of the range; totals and
// recent articles are range-independent as well, only the top-articles
// window follows it.
func (s *Service) Dashboard(ctx context.Context, rng Range) (*DashboardResponse, error) {
	var resp DashboardResponse

	// Each total is an independent aggregate; compute them (and the other
	// dashboard sections) concurrently.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.QueryRowContext(gctx,
			`SELECT COUNT(*) FROM articles WHERE status = $1`, articles.StatusPublished,
		).Scan(&resp.Totals.Articles)
	})
	g.Go(func() error {
		return s.db.QueryRowContext(gctx,
			`SELECT COALESCE(SUM(view_count), 0) FROM articles WHERE status = $1`, articles.StatusPublished,
		).Scan(&resp.Totals.Views)
	})
	g.Go(func() error {
		return s.db.QueryRowContext(gctx,
			`SELECT COALESCE(SUM(like_count), 0) FROM articles WHERE status = $1`, articles.StatusPublished,
		).Scan(&resp.Totals.Likes)
	})
	g.Go(func() error {
		recent, _, err := s.articles.List(gctx, articles.ListOptions{
			Status:  articles.StatusPublished,
			Limit:   5,
			OrderBy: "published_at",
		})
		resp.RecentArticles = recent
		return err
	})
	g.Go(func() error {
		top, err := s.TopArticles(gctx, 10, rng)
		resp.TopArticles = top
		return err
	})
	g.Go(func() error {
		trend, err := s.siteViewTrend(gctx, 7)
		resp.ViewTrends = trend
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute dashboard metrics: %w", err)
	}

	return &resp, nil
}

// TopArticles returns up to limit published articles ordered by view
// count, likes breaking ties. A bounded range restricts eligibility to
// articles published inside the window.
func (s *Service) TopArticles(ctx context.Context, limit int, rng Range) ([]TopArticle, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrValidation)
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, title, slug, view_count, like_count, published_at
		FROM articles
		WHERE status = $1
	`
	args := []interface{}{articles.StatusPublished}

	if start, bounded := rng.Start(s.now()); bounded {
		args = append(args, start)
		query += fmt.Sprintf(" AND published_at > $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY view_count DESC, like_count DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top articles: %w", err)
	}
	defer rows.Close()

	var top []TopArticle
	for rows.Next() {
		var a TopArticle
		var publishedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.Title, &a.Slug, &a.ViewCount, &a.LikeCount, &publishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan top article: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			a.PublishedAt = &t
		}
		top = append(top, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top articles: %w", err)
	}

	return top, nil
}

// ArticleAnalyticsResponse is the per-article analytics payload.
type ArticleAnalyticsResponse struct {
	Article   *articles.Article       `json:"article"`
	ViewTrend []engagement.TrendPoint `json:"view_trend"`
	LikeTrend []engagement.TrendPoint `json:"like_trend"`
}

// ArticleAnalytics returns the article snapshot plus its 30-day view and
// like trends. Trend rows are sparse: days without events are omitted.
func (s *Service) ArticleAnalytics(ctx context.Context, articleID int64) (*ArticleAnalyticsResponse, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	viewTrend, err := s.events.ViewTrend(ctx, articleID, 30)
	if err != nil {
		return nil, err
	}
	likeTrend, err := s.events.LikeTrend(ctx, articleID, 30)
	if err != nil {
		return nil, err
	}

	return &ArticleAnalyticsResponse{
		Article:   article,
		ViewTrend: viewTrend,
		LikeTrend: likeTrend,
	}, nil
}

// EngagementSummaryResponse summarizes visitor engagement over a window.
type EngagementSummaryResponse struct {
	ArticlesViewed     int64   `json:"articles_viewed"`
	TotalViews         int64   `json:"total_views"`
	UniqueVisitors     int64   `json:"unique_visitors"`
	TotalLikes         int64   `json:"total_likes"`
	AvgViewsPerVisitor float64 `json:"avg_views_per_visitor"`
}

// EngagementSummary computes engagement figures over the last 7 or 30
// days. The window is half-open on the left: events at exactly now-days
// are excluded.
func (s *Service) EngagementSummary(ctx context.Context, days int) (*EngagementSummaryResponse, error) {
	if days != 7 && days != 30 {
		return nil, fmt.Errorf("%w: days must be 7 or 30", ErrValidation)
	}

	start := s.now().AddDate(0, 0, -days)

	var resp EngagementSummaryResponse
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT article_id), COUNT(*), COUNT(DISTINCT fingerprint)
		FROM view_events
		WHERE occurred_at > $1
	`, start).Scan(&resp.ArticlesViewed, &resp.TotalViews, &resp.UniqueVisitors)
	if err != nil {
		return nil, fmt.Errorf("failed to query view summary: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM like_events WHERE occurred_at > $1
	`, start).Scan(&resp.TotalLikes)
	if err != nil {
		return nil, fmt.Errorf("failed to query like summary: %w", err)
	}

	if resp.UniqueVisitors > 0 {
		resp.AvgViewsPerVisitor = round2(float64(resp.TotalViews) / float64(resp.UniqueVisitors))
	}

	return &resp, nil
}

// siteViewTrend returns a dense, zero-filled per-day view trend across
// all articles for the last n days, ascending by date.
func (s *Service) siteViewTrend(ctx context.Context, n int) ([]ViewTrendPoint, error) {
	now := s.now()
	since := now.AddDate(0, 0, -n).Format(dateLayout)

	rows, err := s.db.QueryContext(ctx, `
		SELECT view_date, COUNT(*)
		FROM view_events
		WHERE view_date > $1
		GROUP BY view_date
		ORDER BY view_date ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query view trend: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64, n)
	for rows.Next() {
		var date string
		var count int64
		if err := rows.Scan(&date, &count); err != nil {
			return nil, fmt.Errorf("failed to scan view trend: %w", err)
		}
		counts[date] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view trend: %w", err)
	}

	return fillTrend(counts, now, n), nil
}
