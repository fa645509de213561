package crawler

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces the politeness rate per domain. Each host gets its
// own token bucket so concurrent workers never hammer a single site.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   float64
}

// NewRateLimiter creates a limiter allowing perSec requests per second to
// each domain.
func NewRateLimiter(perSec float64) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   perSec,
	}
}

// Wait blocks until a request to the given URL is permitted or the context
// is cancelled.
func (r *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return r.limiterFor(parsed.Hostname()).Wait(ctx)
}

func (r *RateLimiter) limiterFor(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.perSec), 1)
		r.limiters[host] = limiter
	}
	return limiter
}
