package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Retention deletes aged view events. Retention only affects dedup and
// trend history; the denormalized article counters are lifetime totals
// and are deliberately left untouched.
type Retention struct {
	db  *sql.DB
	now func() time.Time
}

// NewRetention creates a new retention sweeper.
func NewRetention(db *sql.DB) *Retention {
	return &Retention{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// PurgeViewEvents deletes view events older than the horizon and returns
// the number of rows removed.
func (r *Retention) PurgeViewEvents(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("%w: olderThanDays must be positive", ErrValidation)
	}

	cutoff := r.now().AddDate(0, 0, -olderThanDays)

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM view_events WHERE occurred_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge view events: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}
	return n, nil
}
