package enrich

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter meters requests per named source
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until source may make another request or ctx is done. The
// first requestsPerMinute calls pass immediately.
func (rl *RateLimiter) Wait(ctx context.Context, source string, requestsPerMinute int) error {
	if requestsPerMinute <= 0 {
		return ctx.Err()
	}
	return rl.getLimiter(source, requestsPerMinute).Wait(ctx)
}

// getLimiter gets or creates the limiter for a source, retuning it when
// the rate changed since the last call.
func (rl *RateLimiter) getLimiter(source string, requestsPerMinute int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	every := rate.Every(time.Minute / time.Duration(requestsPerMinute))
	limiter, exists := rl.limiters[source]
	if !exists {
		limiter = rate.NewLimiter(every, requestsPerMinute)
		rl.limiters[source] = limiter
		return limiter
	}

	if limiter.Burst() != requestsPerMinute {
		limiter.SetLimit(every)
		limiter.SetBurst(requestsPerMinute)
	}
	return limiter
}
