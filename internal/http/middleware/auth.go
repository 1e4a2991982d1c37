// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the acting identity for each request. Token issuance is
// owned by an external auth service; this middleware only consumes bearer
// tokens (HS256) and extracts the actor id and role claims. For tests and
// local use a demo header fallback (X-User-ID / X-User-Role) is accepted,
// mirroring how the identity is stashed by token auth.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ctxKeyUserID is the Gin context key for the authenticated actor id.
	ctxKeyUserID = "userID"
	// ctxKeyUserRole is the Gin context key for the actor's role.
	ctxKeyUserRole = "userRole"

	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

// UserID returns the authenticated actor id stashed by Auth, or "".
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// UserRole returns the actor role stashed by Auth, or "".
func UserRole(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserRole); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AuthOptions configures identity resolution.
type AuthOptions struct {
	// JWTSecret is the HS256 signing secret for bearer tokens. When empty,
	// bearer tokens are not accepted and only the demo headers work.
	JWTSecret string
	// AllowDemoHeaders enables the X-User-ID / X-User-Role fallback.
	// Intended for development and tests; disable in production.
	AllowDemoHeaders bool
	// DefaultRole is assumed when a resolved identity carries no role claim.
	DefaultRole string
}

// Auth resolves the acting identity from a bearer token or, when enabled,
// the demo headers, and stashes id and role in the Gin context. Requests
// without a resolvable identity are rejected with 401; role enforcement is
// a separate concern (see RequireRole).
func Auth(opts AuthOptions) gin.HandlerFunc {
	if opts.DefaultRole == "" {
		opts.DefaultRole = "citizen"
	}
	return func(c *gin.Context) {
		if id, role, ok := identityFromBearer(c, opts); ok {
			if role == "" {
				role = opts.DefaultRole
			}
			c.Set(ctxKeyUserID, id)
			c.Set(ctxKeyUserRole, role)
			c.Next()
			return
		}

		if opts.AllowDemoHeaders {
			if id := strings.TrimSpace(c.GetHeader(headerUserID)); id != "" {
				role := strings.TrimSpace(c.GetHeader(headerUserRole))
				if role == "" {
					role = opts.DefaultRole
				}
				c.Set(ctxKeyUserID, id)
				c.Set(ctxKeyUserRole, role)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "unauthorized",
				"message": "authentication required",
			},
		})
	}
}

// identityFromBearer parses an HS256 bearer token and returns the subject
// and role claims.
func identityFromBearer(c *gin.Context, opts AuthOptions) (id, role string, ok bool) {
	if opts.JWTSecret == "" {
		return "", "", false
	}
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if raw == "" {
		return "", "", false
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, isHMAC := t.Method.(*jwt.SigningMethodHMAC); !isHMAC {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(opts.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return "", "", false
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		// Some issuers use user_id instead of the registered subject claim.
		sub, _ = claims["user_id"].(string)
	}
	if sub == "" {
		return "", "", false
	}
	r, _ := claims["role"].(string)
	return sub, r, true
}

// RequireRole rejects requests whose resolved role is not in allowed.
// Place after Auth on admin route groups.
func RequireRole(allowed ...string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := set[UserRole(c)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "forbidden",
					"message": "admin access required",
				},
			})
			return
		}
		c.Next()
	}
}
