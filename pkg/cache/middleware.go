package cache

import (
	"bytes"
	"net/http"
)

// IdentFunc extracts the route identity (the path parameter, if any)
// used in the cache key. Nil means the class has no identity component.
type IdentFunc func(r *http.Request) string

// responseRecorder buffers a handler's response so it can be cached
// before anything reaches the client.
type responseRecorder struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

// Middleware caches GET responses for one route class. Hits are served
// straight from the cache; misses run the handler, store successful
// responses, and pass everything else through unchanged. Both paths go
// through the conditional filter, so a matching If-None-Match collapses
// the response to 304 either way.
func (c *ResponseCache) Middleware(class Class, ident IdentFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			var id string
			if ident != nil {
				id = ident(r)
			}
			key := Key(class, id, r.URL.Query())

			if entry, ok := c.Get(r.Context(), class, key); ok {
				w.Header().Set("X-Cache", "HIT")
				WriteConditional(w, r, entry.StatusCode, entry.Payload, entry.Validator)
				return
			}

			rec := newResponseRecorder()
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 {
				// Errors are never cached; replay the handler's response.
				copyHeader(w.Header(), rec.header)
				w.WriteHeader(rec.statusCode)
				w.Write(rec.body.Bytes())
				return
			}

			payload := rec.body.Bytes()
			validator := Validator(payload)
			c.Set(r.Context(), class, key, rec.statusCode, payload, validator)

			copyHeader(w.Header(), rec.header)
			w.Header().Set("X-Cache", "MISS")
			WriteConditional(w, r, rec.statusCode, payload, validator)
		})
	}
}

func copyHeader(dst, src http.Header) {
	for k, vals := range src {
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
}
