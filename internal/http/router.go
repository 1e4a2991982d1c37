// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/civicconnect/go-complaints-backend/internal/config"
	"github.com/civicconnect/go-complaints-backend/internal/domain"
	"github.com/civicconnect/go-complaints-backend/internal/http/handlers"
	"github.com/civicconnect/go-complaints-backend/internal/http/middleware"
	"github.com/civicconnect/go-complaints-backend/internal/notify"
	"github.com/civicconnect/go-complaints-backend/internal/repo"
	"github.com/civicconnect/go-complaints-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health and metrics endpoints, and then mounts the versioned API
// under the configured base path: the unauthenticated public/registry
// surface, the authenticated citizen surface, and the role-guarded admin
// surface.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Response compression
//  8. CORS and Security headers
//
// Per group:
//   - Auth resolves the actor before the idempotency validator so replay
//     lookups see the real user id
//   - Idempotency validation runs before the rate limiter so detected
//     replays bypass limiting
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"Authorization",
		},
		SkipPaths: []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Role", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-User-Role", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db
	notifier := &notify.LogNotifier{Log: log.Logger}
	complaintSvc := &services.ComplaintService{DB: db, Notifier: notifier}
	adminSvc := &services.AdminService{DB: db, Notifier: notifier}
	publicSvc := &services.PublicService{DB: db}
	registrySvc := &services.RegistryService{DB: db}
	h := handlers.New(complaintSvc, adminSvc, publicSvc, registrySvc, cfg.IdempotencyTTL)

	auth := middleware.Auth(middleware.AuthOptions{
		JWTSecret:        cfg.Auth.JWTSecret,
		AllowDemoHeaders: cfg.Auth.AllowDemoHeaders,
	})
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	)
	// Token-bucket rate limiter per user/IP; replays bypass it.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Unauthenticated surface
	open := api.Group("", rl.Handler())
	{
		open.GET("/public/complaints", h.PublicListComplaints)
		open.GET("/public/complaints/:id", h.PublicGetComplaint)
		open.GET("/public/search", h.PublicSearchComplaints)

		open.GET("/categories", h.ListCategories)
		open.GET("/statuses", h.ListStatuses)
	}

	// Citizen surface
	authed := api.Group("", auth, idem, rl.Handler())
	{
		authed.POST("/complaints", h.CreateComplaint)
		authed.GET("/complaints", h.ListComplaints)
		authed.GET("/complaints/:id", h.GetComplaint)
		authed.PUT("/complaints/:id", h.UpdateComplaint)
		authed.DELETE("/complaints/:id", h.DeleteComplaint)
		authed.POST("/complaints/:id/vote", h.VoteComplaint)
	}

	// Admin surface
	admin := api.Group("/admin", auth, middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin), rl.Handler())
	{
		admin.GET("/complaints", h.AdminListComplaints)
		admin.GET("/complaints/:id", h.AdminGetComplaint)
		admin.PUT("/complaints/:id/status", h.AdminUpdateStatus)
		admin.PUT("/complaints/:id/assign", h.AdminAssignComplaint)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
