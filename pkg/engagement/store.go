package engagement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/inkwell/pkg/articles"
)

const dateLayout = "2006-01-02"

// Store records view and like events against a SQL database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a new engagement store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// TrendPoint is a single day in a view or like trend. Days without any
// events are omitted; callers zero-fill when they need a dense calendar.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// RecordView records a view from the given visitor fingerprint. It returns
// false without side effects when the visitor already viewed the article
// on the same UTC calendar day. The event insert and the counter increment
// happen in a single transaction.
func (s *Store) RecordView(ctx context.Context, articleID int64, fingerprint, userAgent string) (bool, error) {
	if fingerprint == "" {
		return false, fmt.Errorf("%w: fingerprint is required", ErrValidation)
	}

	now := s.now()
	day := now.Format(dateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := articles.ExistsTx(ctx, tx, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	if !exists {
		return false, ErrArticleNotFound
	}

	// The unique index on (article_id, fingerprint, view_date) serializes
	// concurrent inserts from the same visitor: exactly one wins.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO view_events (article_id, fingerprint, user_agent, view_date, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (article_id, fingerprint, view_date) DO NOTHING
	`, articleID, fingerprint, nullString(userAgent), day, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert view event: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if inserted == 0 {
		// Already viewed today. Nothing was written, so the deferred
		// rollback discards an empty transaction.
		return false, nil
	}

	updated, err := articles.IncrementView(ctx, tx, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to increment view count: %w", err)
	}
	if !updated {
		// Article vanished between the existence check and the counter
		// update; roll the event insert back with it.
		return false, ErrArticleNotFound
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit view: %w", err)
	}

	return true, nil
}

// HasLiked reports whether the visitor currently likes the article.
func (s *Store) HasLiked(ctx context.Context, articleID int64, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, fmt.Errorf("%w: fingerprint is required", ErrValidation)
	}

	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM like_events WHERE article_id = $1 AND fingerprint = $2
	`, articleID, fingerprint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to query like: %w", err)
	}
	return true, nil
}

// ToggleLike flips the visitor's like for the article. A set like is
// removed and the counter decremented; an unset like is created and the
// counter incremented. Both legs run inside one transaction.
func (s *Store) ToggleLike(ctx context.Context, articleID int64, fingerprint, userAgent string) (bool, error) {
	if fingerprint == "" {
		return false, fmt.Errorf("%w: fingerprint is required", ErrValidation)
	}

	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := articles.ExistsTx(ctx, tx, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	if !exists {
		return false, ErrArticleNotFound
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM like_events WHERE article_id = $1 AND fingerprint = $2
	`, articleID, fingerprint)
	if err != nil {
		return false, fmt.Errorf("failed to delete like event: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	if deleted > 0 {
		updated, err := articles.DecrementLike(ctx, tx, articleID)
		if err != nil {
			return false, fmt.Errorf("failed to decrement like count: %w", err)
		}
		if !updated {
			return false, ErrArticleNotFound
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit unlike: %w", err)
		}
		return false, nil
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO like_events (article_id, fingerprint, user_agent, like_date, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (article_id, fingerprint) DO NOTHING
	`, articleID, fingerprint, nullString(userAgent), now.Format(dateLayout), now)
	if err != nil {
		return false, fmt.Errorf("failed to insert like event: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if inserted == 0 {
		// A concurrent request created the like first; report liked
		// without touching the counter a second time.
		return true, nil
	}

	updated, err := articles.IncrementLike(ctx, tx, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to increment like count: %w", err)
	}
	if !updated {
		return false, ErrArticleNotFound
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit like: %w", err)
	}

	return true, nil
}

// ViewTrend returns per-day view counts for the article over the last
// sinceDays days, ascending by date, days without views omitted.
func (s *Store) ViewTrend(ctx context.Context, articleID int64, sinceDays int) ([]TrendPoint, error) {
	return s.trend(ctx, "view_events", "view_date", articleID, sinceDays)
}

// LikeTrend returns per-day like counts for the article over the last
// sinceDays days, ascending by date, days without likes omitted. Unliked
// articles leave no rows, so the trend reflects the current like set.
func (s *Store) LikeTrend(ctx context.Context, articleID int64, sinceDays int) ([]TrendPoint, error) {
	return s.trend(ctx, "like_events", "like_date", articleID, sinceDays)
}

func (s *Store) trend(ctx context.Context, table, dateColumn string, articleID int64, sinceDays int) ([]TrendPoint, error) {
	if sinceDays <= 0 {
		return nil, fmt.Errorf("%w: sinceDays must be positive", ErrValidation)
	}

	since := s.now().AddDate(0, 0, -sinceDays).Format(dateLayout)

	query := fmt.Sprintf(`
		SELECT %[2]s, COUNT(*)
		FROM %[1]s
		WHERE article_id = $1 AND %[2]s > $2
		GROUP BY %[2]s
		ORDER BY %[2]s ASC
	`, table, dateColumn)

	rows, err := s.db.QueryContext(ctx, query, articleID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend: %w", err)
	}
	defer rows.Close()

	var trend []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		trend = append(trend, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trend rows: %w", err)
	}

	return trend, nil
}

// Helper function to convert empty strings to NULL
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
