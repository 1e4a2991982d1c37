// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the hardening middleware applied to
// every response. The API is JSON-only behind a reverse proxy, so the header
// set is conservative: no CSP (only meaningful for HTML), HSTS strictly
// opt-in and emitted only when the request actually arrived over HTTPS, and
// optional cache suppression for sensitive responses.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the emitted security headers.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Enable
	// only when traffic is HTTPS end-to-end, including proxy to app.
	EnableHSTS bool
	// HSTSMaxAge is the HSTS lifetime; values <= 0 fall back to 180 days.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires) to
	// keep sensitive responses out of shared caches.
	NoStore bool
	// EnablePolicy includes the browser feature policies
	// (Permissions-Policy, X-Permitted-Cross-Domain-Policies). Harmless for
	// non-browser clients.
	EnablePolicy bool
}

// SecurityHeaders returns a middleware that stamps each response with:
//
//   - X-Content-Type-Options: nosniff, X-Frame-Options: DENY, and
//     Referrer-Policy: no-referrer, unconditionally
//   - the feature policies, when EnablePolicy is set
//   - the no-store cache headers, when NoStore is set
//   - Strict-Transport-Security, when EnableHSTS is set and the request is
//     HTTPS (directly or via X-Forwarded-Proto)
//
// When the response carries an X-Request-ID it is appended to
// Access-Control-Expose-Headers so browser clients can read it for support
// reports against a complaint number.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security",
				"max-age="+strconv.Itoa(maxAge)+"; includeSubDomains; preload")
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, "X-Request-ID")
			} else if !strings.Contains(cur, "X-Request-ID") {
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over HTTPS, either terminated
// here (r.TLS != nil) or at a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
