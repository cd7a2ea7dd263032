package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"https://example.com"})(okHandler())

	t.Run("allowed origin gets CORS headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/articles", nil)
		req.Header.Set("Origin", "https://example.com")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
		if rr.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("Access-Control-Allow-Methods missing")
		}
	})

	t.Run("unknown origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/articles", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		wildcard := CORSMiddleware([]string{"*"})(okHandler())
		req := httptest.NewRequest("GET", "/api/v1/articles", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rr := httptest.NewRecorder()
		wildcard.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		reached := false
		preflight := CORSMiddleware([]string{"https://example.com"})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

		req := httptest.NewRequest("OPTIONS", "/api/v1/articles", nil)
		req.Header.Set("Origin", "https://example.com")
		rr := httptest.NewRecorder()
		preflight.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("preflight status = %d, want 200", rr.Code)
		}
		if reached {
			t.Error("preflight request reached the wrapped handler")
		}
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("fast handler passes through", func(t *testing.T) {
		handler := TimeoutMiddleware(time.Second)(okHandler())
		req := httptest.NewRequest("GET", "/api/v1/articles", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("slow handler times out", func(t *testing.T) {
		done := make(chan struct{})
		handler := TimeoutMiddleware(20 * time.Millisecond)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-done
			}))

		req := httptest.NewRequest("GET", "/api/v1/articles", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		close(done)

		if rr.Code != http.StatusGatewayTimeout {
			t.Errorf("status = %d, want 504", rr.Code)
		}
	})
}
