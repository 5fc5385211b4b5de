package server

import (
	"sync"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/time/rate"
)

const (
	cacheSize     = 1000
	limiterExpiry = 24 * time.Hour
)

// ipRateLimiter keeps one token bucket per client IP for the most recently
// seen cacheSize addresses.
type ipRateLimiter struct {
	cache gcache.Cache
	mu    sync.Mutex
	r     rate.Limit
	b     int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{
		cache: gcache.New(cacheSize).LRU().Build(),
		r:     r,
		b:     b,
	}
}

func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limiter, err := i.cache.Get(ip); err == nil {
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(i.r, i.b)
	i.cache.SetWithExpire(ip, limiter, limiterExpiry)
	return limiter
}

func (i *ipRateLimiter) allow(ip string) bool {
	return i.getLimiter(ip).Allow()
}
