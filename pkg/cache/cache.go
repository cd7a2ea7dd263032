package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platinummonkey/inkwell/pkg/observability"
)

const defaultLocalSize = 512

// Entry is one cached response. Entries are replaced wholesale, never
// partially updated.
type Entry struct {
	Key        string        `json:"key"`
	Payload    []byte        `json:"payload"`
	Validator  string        `json:"validator"`
	StatusCode int           `json:"status_code"`
	StoredAt   time.Time     `json:"stored_at"`
	TTL        time.Duration `json:"ttl"`
}

// fresh reports whether the entry is still inside its TTL at the given
// instant. Stale entries behave like absent ones for reads.
func (e *Entry) fresh(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.TTL
}

// Options configures a ResponseCache.
type Options struct {
	// Client is the Redis backend. Nil disables the shared tier; the
	// local LRU still serves within-process hits.
	Client *redis.Client

	// LocalSize bounds the in-process hot tier (default 512 entries).
	LocalSize int

	Policy  *Policy
	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// ResponseCache is a two-tier response cache: an in-process LRU in front
// of Redis. Entry expiry is evaluated lazily on read; concurrent misses
// may both recompute and both store, last writer wins.
type ResponseCache struct {
	client  *redis.Client
	local   *lru.Cache[string, *Entry]
	policy  *Policy
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// New creates a response cache.
func New(opts Options) (*ResponseCache, error) {
	size := opts.LocalSize
	if size <= 0 {
		size = defaultLocalSize
	}
	local, err := lru.New[string, *Entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache tier: %w", err)
	}

	policy := opts.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	return &ResponseCache{
		client:  opts.Client,
		local:   local,
		policy:  policy,
		logger:  logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}, nil
}

// Policy returns the active TTL policy.
func (c *ResponseCache) Policy() *Policy {
	return c.policy
}

// Get returns the cached entry for the key if one exists and is fresh.
// Backend failures are swallowed: the caller serves from origin.
func (c *ResponseCache) Get(ctx context.Context, class Class, key string) (*Entry, bool) {
	now := c.now()

	if entry, ok := c.local.Get(key); ok {
		if entry.fresh(now) {
			c.countHit(class, "local")
			return entry, true
		}
		// Lazy expiry: drop the stale entry, the next store overwrites.
		c.local.Remove(key)
		c.countEviction(class, "expired")
	}

	if c.client == nil {
		c.countMiss(class)
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.countMiss(class)
		return nil, false
	} else if err != nil {
		c.degrade(class, "get", err)
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry; delete it and treat as a miss.
		c.client.Del(ctx, key)
		c.logger.WithError(err).WithField("key", key).Warn("Dropping corrupt cache entry")
		c.countMiss(class)
		return nil, false
	}

	if !entry.fresh(now) {
		c.countMiss(class)
		return nil, false
	}

	c.local.Add(key, &entry)
	c.countHit(class, "redis")
	return &entry, true
}

// Set stores a successful response under the key with the class TTL.
// Failures are logged and dropped; caching is best effort.
func (c *ResponseCache) Set(ctx context.Context, class Class, key string, statusCode int, payload []byte, validator string) {
	entry := &Entry{
		Key:        key,
		Payload:    payload,
		Validator:  validator,
		StatusCode: statusCode,
		StoredAt:   c.now(),
		TTL:        c.policy.TTL(class),
	}

	c.local.Add(key, entry)

	if c.client == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to marshal cache entry")
		return
	}
	if err := c.client.Set(ctx, key, data, entry.TTL).Err(); err != nil {
		c.degrade(class, "set", err)
	}
}

// InvalidateArticles flushes the whole articles-list class.
func (c *ResponseCache) InvalidateArticles(ctx context.Context) {
	c.invalidatePrefix(ctx, ClassArticlesList, keyPrefix[ClassArticlesList])
}

// InvalidateArticle deletes the by-id entry for one article.
func (c *ResponseCache) InvalidateArticle(ctx context.Context, id int64) {
	c.invalidateKey(ctx, ClassArticleByID, keyPrefix[ClassArticleByID]+":"+strconv.FormatInt(id, 10))
}

// InvalidateSlug deletes the by-slug entry for one article.
func (c *ResponseCache) InvalidateSlug(ctx context.Context, slug string) {
	c.invalidateKey(ctx, ClassArticleBySlug, keyPrefix[ClassArticleBySlug]+":"+slug)
}

// InvalidateCategories deletes the categories listing.
func (c *ResponseCache) InvalidateCategories(ctx context.Context) {
	c.invalidateKey(ctx, ClassCategories, keyPrefix[ClassCategories])
}

// InvalidateAnalytics removes every analytics-class entry with a prefix
// scan; dashboard and top-articles keys share the "analytics:" namespace.
func (c *ResponseCache) InvalidateAnalytics(ctx context.Context) {
	c.invalidatePrefix(ctx, ClassDashboard, "analytics")
}

func (c *ResponseCache) invalidateKey(ctx context.Context, class Class, key string) {
	// The local tier has no per-prefix index; purge it wholesale so no
	// process ever serves an entry the shared tier already dropped.
	c.local.Purge()
	c.countInvalidation(class)

	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.degrade(class, "invalidate", err)
	}
}

func (c *ResponseCache) invalidatePrefix(ctx context.Context, class Class, prefix string) {
	c.local.Purge()
	c.countInvalidation(class)

	if c.client == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.degrade(class, "invalidate", err)
			return
		}
	}
	if err := iter.Err(); err != nil {
		c.degrade(class, "invalidate", err)
	}
}

// Stats reports entry counts per tier.
func (c *ResponseCache) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"local_entries": c.local.Len(),
	}
	if c.client != nil {
		dbSize, err := c.client.DBSize(ctx).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read redis stats: %w", err)
		}
		stats["redis_keys"] = dbSize
	}
	return stats, nil
}

// degrade records a cache backend failure. The request is always served
// from origin; the backend error never propagates.
func (c *ResponseCache) degrade(class Class, op string, err error) {
	c.logger.WithError(err).WithFields(map[string]interface{}{
		"class":     string(class),
		"operation": op,
	}).Warn("Cache backend unavailable, serving from origin")
	if c.metrics != nil {
		c.metrics.CacheErrorsTotal.WithLabelValues(string(class), op).Inc()
	}
	c.countMiss(class)
}

func (c *ResponseCache) countHit(class Class, tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(string(class), tier).Inc()
	}
}

func (c *ResponseCache) countMiss(class Class) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(string(class)).Inc()
	}
}

func (c *ResponseCache) countEviction(class Class, reason string) {
	if c.metrics != nil {
		c.metrics.CacheEvictionsTotal.WithLabelValues(string(class), reason).Inc()
	}
}

func (c *ResponseCache) countInvalidation(class Class) {
	if c.metrics != nil {
		c.metrics.CacheInvalidationsTotal.WithLabelValues(string(class)).Inc()
	}
}
