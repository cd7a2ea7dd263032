package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/inkwell/pkg/observability"
)

// setupTestCache creates a response cache backed by miniredis.
func setupTestCache(t *testing.T) (*ResponseCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	rc, err := New(Options{
		Client: client,
		Logger: observability.NewLogger(observability.ErrorLevel, io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	return rc, mr
}

func TestResponseCache_SetAndGet(t *testing.T) {
	rc, _ := setupTestCache(t)
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		if _, ok := rc.Get(ctx, ClassArticlesList, "articles:list"); ok {
			t.Error("Expected miss on empty cache")
		}
	})

	t.Run("hit after set", func(t *testing.T) {
		payload := []byte(`{"articles":[]}`)
		rc.Set(ctx, ClassArticlesList, "articles:list", 200, payload, Validator(payload))

		entry, ok := rc.Get(ctx, ClassArticlesList, "articles:list")
		if !ok {
			t.Fatal("Expected hit after set")
		}
		if string(entry.Payload) != string(payload) {
			t.Errorf("Payload = %q, want %q", entry.Payload, payload)
		}
		if entry.StatusCode != 200 {
			t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
		}
		if entry.Validator != Validator(payload) {
			t.Errorf("Validator = %q, want %q", entry.Validator, Validator(payload))
		}
	})

	t.Run("hit survives local purge via redis", func(t *testing.T) {
		payload := []byte(`{"id":1}`)
		rc.Set(ctx, ClassArticleByID, "articles:id:1", 200, payload, Validator(payload))

		rc.local.Purge()

		entry, ok := rc.Get(ctx, ClassArticleByID, "articles:id:1")
		if !ok {
			t.Fatal("Expected hit from redis tier")
		}
		if string(entry.Payload) != string(payload) {
			t.Errorf("Payload = %q, want %q", entry.Payload, payload)
		}

		// The redis hit repopulates the local tier.
		if _, ok := rc.local.Get("articles:id:1"); !ok {
			t.Error("Expected redis hit to repopulate local tier")
		}
	})
}

func TestResponseCache_Expiry(t *testing.T) {
	rc, _ := setupTestCache(t)
	ctx := context.Background()

	base := time.Now()
	rc.now = func() time.Time { return base }

	payload := []byte(`{"totals":{}}`)
	rc.Set(ctx, ClassDashboard, "analytics:dashboard", 200, payload, Validator(payload))

	t.Run("fresh inside TTL", func(t *testing.T) {
		rc.now = func() time.Time { return base.Add(TTLShort - time.Second) }
		if _, ok := rc.Get(ctx, ClassDashboard, "analytics:dashboard"); !ok {
			t.Error("Expected hit inside TTL")
		}
	})

	t.Run("stale past TTL", func(t *testing.T) {
		rc.now = func() time.Time { return base.Add(TTLShort + time.Second) }
		if _, ok := rc.Get(ctx, ClassDashboard, "analytics:dashboard"); ok {
			t.Error("Expected miss past TTL")
		}
	})

	t.Run("stale entry evicted from local tier", func(t *testing.T) {
		if _, ok := rc.local.Get("analytics:dashboard"); ok {
			t.Error("Expected stale entry to be dropped from local tier")
		}
	})
}

func TestResponseCache_RedisTTL(t *testing.T) {
	rc, mr := setupTestCache(t)
	ctx := context.Background()

	payload := []byte(`{"id":7}`)
	rc.Set(ctx, ClassArticleByID, "articles:id:7", 200, payload, Validator(payload))

	// The redis key carries the policy TTL so entries self-clean even if
	// no reader ever observes them stale.
	mr.FastForward(TTLMedium + time.Second)

	if mr.Exists("articles:id:7") {
		t.Error("Expected redis key to expire with the class TTL")
	}
}

func TestResponseCache_Invalidation(t *testing.T) {
	rc, mr := setupTestCache(t)
	ctx := context.Background()

	seed := func() {
		payload := []byte(`{}`)
		v := Validator(payload)
		rc.Set(ctx, ClassArticlesList, "articles:list?page=1", 200, payload, v)
		rc.Set(ctx, ClassArticlesList, "articles:list?page=2", 200, payload, v)
		rc.Set(ctx, ClassArticleByID, "articles:id:1", 200, payload, v)
		rc.Set(ctx, ClassArticleBySlug, "articles:slug:intro", 200, payload, v)
		rc.Set(ctx, ClassCategories, "categories", 200, payload, v)
		rc.Set(ctx, ClassDashboard, "analytics:dashboard?range=7d", 200, payload, v)
		rc.Set(ctx, ClassTopArticles, "analytics:top?limit=10", 200, payload, v)
	}

	t.Run("invalidate articles list flushes every list variant", func(t *testing.T) {
		seed()
		rc.InvalidateArticles(ctx)

		if mr.Exists("articles:list?page=1") || mr.Exists("articles:list?page=2") {
			t.Error("Expected all list variants to be deleted")
		}
		if !mr.Exists("articles:id:1") {
			t.Error("Expected by-id entry to survive list invalidation")
		}
	})

	t.Run("invalidate article targets a single key", func(t *testing.T) {
		seed()
		rc.InvalidateArticle(ctx, 1)

		if mr.Exists("articles:id:1") {
			t.Error("Expected by-id entry to be deleted")
		}
		if !mr.Exists("articles:slug:intro") {
			t.Error("Expected by-slug entry to survive by-id invalidation")
		}
	})

	t.Run("invalidate slug targets a single key", func(t *testing.T) {
		seed()
		rc.InvalidateSlug(ctx, "intro")

		if mr.Exists("articles:slug:intro") {
			t.Error("Expected by-slug entry to be deleted")
		}
	})

	t.Run("invalidate categories", func(t *testing.T) {
		seed()
		rc.InvalidateCategories(ctx)

		if mr.Exists("categories") {
			t.Error("Expected categories entry to be deleted")
		}
	})

	t.Run("invalidate analytics sweeps the prefix", func(t *testing.T) {
		seed()
		rc.InvalidateAnalytics(ctx)

		if mr.Exists("analytics:dashboard?range=7d") {
			t.Error("Expected dashboard entry to be deleted")
		}
		if mr.Exists("analytics:top?limit=10") {
			t.Error("Expected top-articles entry to be deleted")
		}
		if !mr.Exists("articles:id:1") {
			t.Error("Expected article entries to survive analytics invalidation")
		}
	})

	t.Run("invalidation purges the local tier", func(t *testing.T) {
		seed()
		rc.InvalidateArticle(ctx, 1)

		if rc.local.Len() != 0 {
			t.Errorf("Expected empty local tier after invalidation, got %d entries", rc.local.Len())
		}
	})
}

func TestResponseCache_Degradation(t *testing.T) {
	rc, mr := setupTestCache(t)
	ctx := context.Background()

	payload := []byte(`{"id":9}`)
	rc.Set(ctx, ClassArticleByID, "articles:id:9", 200, payload, Validator(payload))

	// Kill the backend. Reads must degrade to misses and writes must be
	// dropped, never error.
	mr.Close()
	rc.local.Purge()

	t.Run("get degrades to miss", func(t *testing.T) {
		if _, ok := rc.Get(ctx, ClassArticleByID, "articles:id:9"); ok {
			t.Error("Expected miss when backend is down")
		}
	})

	t.Run("set is dropped silently", func(t *testing.T) {
		rc.Set(ctx, ClassArticleByID, "articles:id:9", 200, payload, Validator(payload))
		// Local tier still took the write, so in-process reads work.
		if _, ok := rc.Get(ctx, ClassArticleByID, "articles:id:9"); !ok {
			t.Error("Expected local tier to serve after backend write failed")
		}
	})

	t.Run("invalidation does not error", func(t *testing.T) {
		rc.InvalidateArticles(ctx)
		rc.InvalidateAnalytics(ctx)
		rc.InvalidateArticle(ctx, 9)
	})
}

func TestResponseCache_CorruptEntry(t *testing.T) {
	rc, mr := setupTestCache(t)
	ctx := context.Background()

	mr.Set("articles:id:3", "not json")

	if _, ok := rc.Get(ctx, ClassArticleByID, "articles:id:3"); ok {
		t.Error("Expected corrupt entry to read as a miss")
	}
	if mr.Exists("articles:id:3") {
		t.Error("Expected corrupt entry to be deleted")
	}
}

func TestResponseCache_NoRedis(t *testing.T) {
	rc, err := New(Options{
		Logger: observability.NewLogger(observability.ErrorLevel, io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	ctx := context.Background()

	payload := []byte(`{}`)
	rc.Set(ctx, ClassCategories, "categories", 200, payload, Validator(payload))

	if _, ok := rc.Get(ctx, ClassCategories, "categories"); !ok {
		t.Error("Expected local-only cache to serve hits without redis")
	}

	rc.InvalidateCategories(ctx)
	if _, ok := rc.Get(ctx, ClassCategories, "categories"); ok {
		t.Error("Expected invalidation to clear the local tier")
	}
}

func TestResponseCache_NonSuccessNotStored(t *testing.T) {
	// Set is only ever called for 2xx responses by the middleware; this
	// guards the middleware contract end to end.
	rc, mr := setupTestCache(t)

	handlerStatus := 404
	h := rc.Middleware(ClassArticleByID, nil)(statusHandler(&handlerStatus, []byte(`{"error":"not found"}`)))

	rr := doGet(t, h, "/api/v1/articles/5", nil)
	if rr.Code != 404 {
		t.Errorf("Status = %d, want 404", rr.Code)
	}
	if mr.Exists("articles:id") {
		t.Error("Expected non-2xx response to stay uncached")
	}
}

func TestResponseCache_Stats(t *testing.T) {
	rc, _ := setupTestCache(t)
	ctx := context.Background()

	payload := []byte(`{}`)
	rc.Set(ctx, ClassCategories, "categories", 200, payload, Validator(payload))
	rc.Set(ctx, ClassArticleByID, "articles:id:1", 200, payload, Validator(payload))

	stats, err := rc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v, want nil", err)
	}

	if local, ok := stats["local_entries"].(int); !ok || local != 2 {
		t.Errorf("local_entries = %v, want 2", stats["local_entries"])
	}
	if keys, ok := stats["redis_keys"].(int64); !ok || keys != 2 {
		t.Errorf("redis_keys = %v, want 2", stats["redis_keys"])
	}
}
