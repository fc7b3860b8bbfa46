// Package ratelimit provides a keyed token bucket limiter for the API.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Limiter tracks one token bucket per client key. Buckets refill
// continuously at a fixed per-minute rate up to their capacity.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	capacity        float64
	refillPerMinute float64
	cleanupInterval time.Duration

	// now is the bucket clock; tests override it.
	now func() time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Config holds rate limiter configuration.
type Config struct {
	Capacity        int
	RefillPerMinute int
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:        60,
		RefillPerMinute: 60,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewLimiter creates a limiter and starts its background cleanup.
func NewLimiter(config Config) *Limiter {
	if config.Capacity <= 0 || config.RefillPerMinute <= 0 {
		config = DefaultConfig()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		buckets:         make(map[string]*bucket),
		stopCleanup:     make(chan struct{}),
		capacity:        float64(config.Capacity),
		refillPerMinute: float64(config.RefillPerMinute),
		cleanupInterval: config.CleanupInterval,
		now:             time.Now,
	}
	go l.startCleanup()
	return l
}

// Allow takes one token from the key's bucket, reporting whether one was
// available. New keys start with a full bucket.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[key]
	if !exists {
		l.buckets[key] = &bucket{tokens: l.capacity - 1, lastRefill: now}
		return true
	}

	elapsed := now.Sub(b.lastRefill).Minutes()
	b.tokens += elapsed * l.refillPerMinute
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// ActiveClients returns the number of currently tracked buckets.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop shuts down the cleanup goroutine.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupStaleBuckets()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanupStaleBuckets drops buckets idle long enough to be full again.
func (l *Limiter) cleanupStaleBuckets() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-10 * time.Minute)
	for key, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Middleware wraps a handler with per-key limiting. keyFn extracts the
// client key from the request; onLimit, when nil, answers 429 with a
// Retry-After hint.
func (l *Limiter) Middleware(keyFn func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(keyFn(r)) {
				if onLimit != nil {
					onLimit(w, r)
				} else {
					w.Header().Set("Retry-After", "60")
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
