// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the structured HTTP logger. Complaint
// traffic routinely carries personal data (submitter emails, phone numbers,
// record identifiers) and anonymous complaints promise that the submitter
// stays hidden, so request metadata is scrubbed before it reaches the logs:
//
//   - request and response bodies are never logged
//   - email addresses, phone numbers, and UUID-like identifiers are redacted
//     from query strings and header values
//   - sensitive headers (Authorization, Cookie, Set-Cookie, plus any
//     configured extras) are masked outright
//
// Scrubbing narrows the leak surface but cannot make logging safe against
// PII smuggled through arbitrary query parameters; clients should not put
// personal data in URLs in the first place.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders lists extra header names whose values are replaced with
	// "[REDACTED]". Case-insensitive, merged with the built-in set
	// (Authorization, Cookie, Set-Cookie).
	MaskHeaders []string
	// SkipPaths lists exact request paths that are not logged at all.
	// Typically /health and /metrics, which only produce probe noise.
	SkipPaths []string
}

// RedactingLogger returns a middleware that logs one structured line per
// request: method, route, scrubbed query, status, response size, latency,
// and scrubbed headers. Severity follows the status code: info for 2xx/3xx,
// warn for 4xx, error for 5xx.
//
// UUIDs are redacted before phone numbers so the phone pattern cannot match
// the digit runs inside an identifier.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	uuidRE := regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE := regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only phone pattern, so hex segments of ids never match.
	// Matches "+91 98765 43210", "212-555-1212", "(212) 555 1212".
	phoneRE := regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)

	redact := func(s string) string {
		if s == "" {
			return s
		}
		out := s
		out = uuidRE.ReplaceAllString(out, "[REDACTED:id]")
		out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
		out = phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
		return out
	}

	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := redact(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			val := strings.Join(vv, ", ")
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(val)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()

		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", size).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
