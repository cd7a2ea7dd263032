package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/platinummonkey/inkwell/pkg/articles"
)

func TestPurgeViewEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("purges events past the horizon", func(t *testing.T) {
		db := setupTestDB(t)
		id := seedArticle(t, db, "aging", articles.StatusPublished, 3, 0, testNow)

		r := NewRetention(db)
		r.now = func() time.Time { return testNow }

		seedView(t, db, id, "ancient", testNow.AddDate(0, 0, -400))
		seedView(t, db, id, "borderline", testNow.AddDate(0, 0, -364))
		seedView(t, db, id, "fresh", testNow)

		purged, err := r.PurgeViewEvents(ctx, 365)
		if err != nil {
			t.Fatalf("PurgeViewEvents() error = %v", err)
		}
		if purged != 1 {
			t.Errorf("PurgeViewEvents() = %d, want 1", purged)
		}

		var remaining int64
		if err := db.QueryRow("SELECT COUNT(*) FROM view_events").Scan(&remaining); err != nil {
			t.Fatalf("Failed to count events: %v", err)
		}
		if remaining != 2 {
			t.Errorf("remaining events = %d, want 2", remaining)
		}

		// Lifetime counters are untouched by retention.
		var views int64
		if err := db.QueryRow("SELECT view_count FROM articles WHERE id = $1", id).Scan(&views); err != nil {
			t.Fatalf("Failed to read view_count: %v", err)
		}
		if views != 3 {
			t.Errorf("view_count = %d after purge, want 3", views)
		}
	})

	t.Run("nothing to purge", func(t *testing.T) {
		db := setupTestDB(t)
		seedArticle(t, db, "empty", articles.StatusPublished, 0, 0, testNow)

		purged, err := NewRetention(db).PurgeViewEvents(ctx, 365)
		if err != nil {
			t.Fatalf("PurgeViewEvents() error = %v", err)
		}
		if purged != 0 {
			t.Errorf("PurgeViewEvents() = %d, want 0", purged)
		}
	})

	t.Run("non-positive horizon rejected", func(t *testing.T) {
		db := setupTestDB(t)
		r := NewRetention(db)
		for _, days := range []int{0, -30} {
			if _, err := r.PurgeViewEvents(ctx, days); !errors.Is(err, ErrValidation) {
				t.Errorf("PurgeViewEvents(%d) error = %v, want ErrValidation", days, err)
			}
		}
	})
}
