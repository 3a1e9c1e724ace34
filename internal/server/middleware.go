package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter hands out one token-bucket limiter per connection, so an
// abusive client is throttled without affecting anyone else.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// NewRateLimiter allows perSecond sustained messages with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a connection may send another message now.
func (r *RateLimiter) Allow(connectionID string) bool {
	r.mu.Lock()
	lim, ok := r.limiters[connectionID]
	if !ok {
		lim = rate.NewLimiter(r.limit, r.burst)
		r.limiters[connectionID] = lim
	}
	r.mu.Unlock()

	return lim.Allow()
}

// Forget drops the limiter state for a closed connection.
func (r *RateLimiter) Forget(connectionID string) {
	r.mu.Lock()
	delete(r.limiters, connectionID)
	r.mu.Unlock()
}
