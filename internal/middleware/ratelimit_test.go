package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/athena/internal/config"
)

func newTestLimiter(rps float64, burst int) (*RateLimiter, *time.Time) {
	now := time.Date(2026, 7, 14, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(config.Rate{RequestsPerSecond: rps, Burst: burst})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", http.NoBody)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl, _ := newTestLimiter(10, 5)
	h := rl.Handler(okHandler())

	for i := range 5 {
		if rec := hit(h, "192.168.1.20:5000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := hit(h, "192.168.1.20:5000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl, now := newTestLimiter(2, 1)
	h := rl.Handler(okHandler())

	if rec := hit(h, "10.0.0.1:1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.1:1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	*now = now.Add(500 * time.Millisecond)
	if rec := hit(h, "10.0.0.1:1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after refill, got %d", rec.Code)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl, _ := newTestLimiter(10, 2)
	h := rl.Handler(okHandler())

	for range 2 {
		hit(h, "10.0.0.1:1")
	}
	if rec := hit(h, "10.0.0.1:2"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same host different port: expected 429, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.2:1"); rec.Code != http.StatusOK {
		t.Errorf("other host: expected 200, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.3:1"); rec.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Errorf("expected remaining 1, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimiter_MaxClients(t *testing.T) {
	rl, _ := newTestLimiter(10, 10)
	rl.maxClients = 1
	h := rl.Handler(okHandler())

	hit(h, "10.0.0.1:1")
	if rec := hit(h, "10.0.0.2:1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 at capacity, got %d", rec.Code)
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl, now := newTestLimiter(10, 10)
	h := rl.Handler(okHandler())

	hit(h, "10.0.0.1:1")
	*now = now.Add(time.Minute)
	hit(h, "10.0.0.2:1")

	if n := rl.evictIdle(30 * time.Second); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if rl.Len() != 1 {
		t.Fatalf("expected 1 tracked client, got %d", rl.Len())
	}
}

func TestRateLimiter_RunStops(t *testing.T) {
	rl, _ := newTestLimiter(10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond, time.Minute)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
