package httputil

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
}

// DefaultRateLimitConfig returns default rate limit settings for
// engagement writes: generous enough for a human reader, tight enough
// to blunt scripted view inflation.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 60,
		WindowDuration:    time.Minute,
	}
}

// VisitorRateLimiter limits mutating requests per visitor using Redis,
// so the limit holds across multiple API instances.
type VisitorRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewVisitorRateLimiter creates a new Redis-backed rate limiter.
func NewVisitorRateLimiter(redisClient *redis.Client, config *RateLimitConfig) *VisitorRateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &VisitorRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: "ratelimit",
	}
}

// Allow checks whether the visitor is under the limit. On Redis errors
// it fails open: engagement writes are cheap and losing them to a cache
// outage is worse than briefly losing the limit.
func (rl *VisitorRateLimiter) Allow(r *http.Request, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(r.Context(), redisKey)
	pipe.Expire(r.Context(), redisKey, rl.config.WindowDuration)
	if _, err := pipe.Exec(r.Context()); err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// RateLimitMiddleware applies the limiter to mutating requests, keyed
// by client address. Reads are left alone; the response cache absorbs
// those.
func RateLimitMiddleware(limiter *VisitorRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r, ClientKey(r))
			if err != nil {
				// Degraded Redis already logged by the limiter's callers;
				// fall through with the fail-open verdict.
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerWindow))
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(limiter.config.WindowDuration.Seconds())))
				WriteErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies the client behind a request: the first
// X-Forwarded-For hop when present, otherwise the remote address host.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if key := strings.TrimSpace(first); key != "" {
			return key
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
