// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for complaint submission. Mobile
// clients on flaky networks retry POST /complaints; a stable Idempotency-Key
// lets the server dedupe those retries instead of filing the same complaint
// twice. The middleware validates the header, stashes the normalized key in
// the request context, and optionally consults a lookup so downstream
// components can:
//   - read the key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - skip rate limiting when serving a replay (flag read by the limiter)
//
// Persistence stays out of this file: the middleware talks to storage only
// through the narrow IdempotencyLookup function type.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients send on unsafe
// operations. The value must be stable per semantic operation so retries
// deduplicate; a UUID per submission attempt works well.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state; read them through
// the accessor helpers, never directly.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: limiter should skip this request
)

// GetIdempotencyKey returns the validated idempotency key stored by
// IdempotencyValidator. The second return reports presence. Handlers should
// call this rather than re-reading the header.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request would replay a previously completed
// submission for the same user and key. Handlers use it to return the
// persisted complaint instead of creating a new one.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation. TTL enforcement belongs in
// the lookup implementation, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil selects a conservative
	// token pattern: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a successful, still-valid submission
// exists for (userID, key) at the given time. Return exists=true when the
// prior result can be replayed; errors are treated as a miss so a flaky
// lookup never blocks a fresh submission.
type IdempotencyLookup func(ctx context.Context, userID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes it in the context, and marks replay plus rate-bypass flags when the
// lookup reports a prior completed submission.
//
// An absent header makes the middleware a no-op; a malformed header is
// rejected with 400 in the API's standard error envelope. The middleware
// never serves a cached payload itself; the complaint handler stays in
// control of replay responses.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"request_id": asString(rid),
					"code":       "bad_idempotency_key",
					"message":    "invalid Idempotency-Key",
				},
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			uid := userIDFromCtx(c)
			now := time.Now().UTC()
			if exists, _ := lookup(c.Request.Context(), uid, key, now); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// userIDFromCtx extracts the authenticated user id set by the auth
// middleware. The "demo-user" fallback keeps idempotency working in
// header-based demo mode where no identity was resolved.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "demo-user"
}
