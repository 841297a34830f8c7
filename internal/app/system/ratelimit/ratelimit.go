// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use.
type Limiter struct {
	limit  int
	counts *cache.Cache
}

// New creates a limiter allowing limit requests per key in each window.
// Expired windows are swept by the cache's janitor.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		counts: cache.New(window, 2*window),
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	if err := l.counts.Add(key, 1, cache.DefaultExpiration); err == nil {
		return l.limit > 0
	}
	n, err := l.counts.IncrementInt(key, 1)
	if err != nil {
		// The window expired between Add and IncrementInt.
		l.counts.Set(key, 1, cache.DefaultExpiration)
		return l.limit > 0
	}
	return n <= l.limit
}

// Remaining returns how many requests are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	x, found := l.counts.Get(key)
	if !found {
		return l.limit
	}
	if left := l.limit - x.(int); left > 0 {
		return left
	}
	return 0
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.counts.Delete(key)
}
