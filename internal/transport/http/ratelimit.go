package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/wirechat-workspace/internal/metrics"
)

const (
	limiterTTL           = 10 * time.Minute
	limiterCleanupPeriod = time.Minute
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per caller.
type rateLimiter struct {
	rps   rate.Limit
	burst int

	mu sync.Mutex
	m  map[string]*limiterEntry
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		m:     make(map[string]*limiterEntry),
	}
}

func (r *rateLimiter) allow(key string) bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.m[key]
	if !ok {
		e = &limiterEntry{l: rate.NewLimiter(r.rps, r.burst)}
		r.m[key] = e
	}
	e.lastSeen = time.Now()
	return e.l.Allow()
}

// sweep drops limiters unused for longer than ttl.
func (r *rateLimiter) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	for k, e := range r.m {
		if e.lastSeen.Before(cutoff) {
			delete(r.m, k)
		}
	}
	r.mu.Unlock()
}

func (r *rateLimiter) startCleanup(stop <-chan struct{}) {
	if r == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(limiterCleanupPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep(limiterTTL)
			case <-stop:
				return
			}
		}
	}()
}

// rateLimitMiddleware rejects callers that exceed their request budget.
// It must run after AuthMiddleware.
func rateLimitMiddleware(r *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strconv.FormatInt(c.GetInt64(ContextKeyUserID), 10)
		if !r.allow(key) {
			metrics.RateLimitHits.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded", Code: "rate_limited"})
			return
		}
		c.Next()
	}
}
