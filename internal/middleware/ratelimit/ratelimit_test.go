package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(capacity, refill int) (*Limiter, *time.Time) {
	l := NewLimiter(Config{Capacity: capacity, RefillPerMinute: refill, CleanupInterval: time.Hour})
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowExhaustsCapacity(t *testing.T) {
	l, _ := newTestLimiter(3, 60)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("client-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("client-1") {
		t.Error("request beyond capacity should be denied")
	}
}

func TestAllowRefills(t *testing.T) {
	l, now := newTestLimiter(2, 60)
	defer l.Stop()

	l.Allow("client-1")
	l.Allow("client-1")
	if l.Allow("client-1") {
		t.Fatal("bucket should be empty")
	}

	// 60/min refill means one token per second.
	*now = now.Add(time.Second)
	if !l.Allow("client-1") {
		t.Error("one token should have refilled")
	}
	if l.Allow("client-1") {
		t.Error("only one token should have refilled")
	}
}

func TestAllowCapsAtCapacity(t *testing.T) {
	l, now := newTestLimiter(2, 60)
	defer l.Stop()

	l.Allow("client-1")
	*now = now.Add(time.Hour)

	for i := 0; i < 2; i++ {
		if !l.Allow("client-1") {
			t.Fatalf("request %d should be allowed after long idle", i+1)
		}
	}
	if l.Allow("client-1") {
		t.Error("refill must not exceed capacity")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 60)
	defer l.Stop()

	if !l.Allow("client-1") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("client-1") {
		t.Error("client-1 should be exhausted")
	}
	if !l.Allow("client-2") {
		t.Error("client-2 has its own bucket")
	}
}

func TestCleanupStaleBuckets(t *testing.T) {
	l, now := newTestLimiter(5, 60)
	defer l.Stop()

	l.Allow("client-1")
	l.Allow("client-2")
	if l.ActiveClients() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", l.ActiveClients())
	}

	*now = now.Add(15 * time.Minute)
	l.cleanupStaleBuckets()
	if l.ActiveClients() != 0 {
		t.Errorf("stale buckets should be dropped, got %d", l.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1, 60)
	defer l.Stop()

	handler := l.Middleware(func(r *http.Request) string { return "key" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Error("expected Retry-After header")
	}
}
