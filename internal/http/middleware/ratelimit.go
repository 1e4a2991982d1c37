// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-identity token-bucket rate limiter protecting
// every API surface (public, citizen, admin). Buckets live in process memory
// keyed by the resolved actor id, falling back to the client IP for the
// unauthenticated public endpoints; idle buckets are evicted opportunistically
// to bound memory.
//
// The limiter is process-local: a horizontally scaled deployment needs a
// shared limiter in front of it to enforce a global rate. It cooperates with
// IdempotencyValidator so replayed submissions are served without consuming
// tokens.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to its rate-limit bucket identity. The returned key
// must be stable for the duration of the request.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated actor when Auth resolved
// one, and by client IP otherwise. Prefixes keep the two namespaces from
// colliding ("user:u123" vs "ip:203.0.113.7").
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(ctxKeyUserID); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// visitor pairs a bucket with the last time its key was seen, for eviction.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Buckets are created on
// demand in a mutex-guarded map and evicted after ttl of inactivity during
// periodic sweeps. Safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst capacity (values <= 0 are coerced to 1), keyed by keyFn.
// Install it per route group via Handler().
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the bucket for key, creating it if absent. Every ~5000
// lookups it sweeps idle entries first, so a stale bucket is evicted even
// when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		lim := v.limiter
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged this request as
// a replay of an already-completed submission. Replays skip limiting.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the enforcement middleware. Denied requests get a 429 in
// the standard error envelope with a minimal Retry-After header:
//
//	HTTP/1.1 429 Too Many Requests
//	{
//	  "success": false,
//	  "error": {
//	    "request_id": "<uuid>",
//	    "code":       "too_many_requests",
//	    "message":    "rate limit exceeded"
//	  }
//	}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := rl.keyFn(c)
		lim := rl.getVisitor(key)

		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error": gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "too_many_requests",
				"message":    "rate limit exceeded",
			},
		})
	}
}
