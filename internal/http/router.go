// Package httpapi wires the HTTP transport (Gin) to the conversation
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging/redaction, panic
// recovery, metrics, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//
// The public surface is deliberately small: the webhook receiver, the
// payment confirmation callback, and the liveness endpoints. Everything else
// the bot does happens behind the webhook.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/khliu/go-imagebot-backend/internal/config"
	"github.com/khliu/go-imagebot-backend/internal/generation"
	"github.com/khliu/go-imagebot-backend/internal/hosting"
	"github.com/khliu/go-imagebot-backend/internal/http/handlers"
	"github.com/khliu/go-imagebot-backend/internal/http/middleware"
	"github.com/khliu/go-imagebot-backend/internal/line"
	"github.com/khliu/go-imagebot-backend/internal/payment"
	"github.com/khliu/go-imagebot-backend/internal/services"
	"github.com/khliu/go-imagebot-backend/internal/session"
)

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine and wires the service graph.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with identifier scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. Rate limiter (per client IP)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, sessions *session.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction; the signature and retry key
	// headers are secrets-adjacent and never logged verbatim.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Line-Signature",
			"X-Line-Retry-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; webhook batches are small)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
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
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← clients/db/session store
	lineClient := line.NewClient(cfg.Line.ChannelAccessToken, cfg.Line.APIBaseURL, cfg.Line.DataBaseURL)
	genClient := generation.NewClient(cfg.Generation)
	hostClient := hosting.NewClient(cfg.Hosting)
	payClient := payment.NewClient(cfg.Payment)

	quotaSvc := services.NewQuotaService(db, cfg.DailyFreeLimit)
	genSvc := services.NewGenerationService(lineClient, genClient, hostClient, cfg.Generation)
	paySvc := services.NewPaymentService(db, payClient, sessions, lineClient, cfg.Payment)
	engine := services.NewEngine(sessions, quotaSvc, genSvc, paySvc, lineClient, cfg.Payment.Amount)

	wh := handlers.NewWebhookHandler(engine, db, cfg.Line.ChannelSecret, cfg.RedeliveryTTL)
	ph := handlers.NewPaymentHandler(paySvc)

	r.POST("/webhook", wh.Receive)
	r.GET("/pay/confirm", ph.Confirm)
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Requests above the cap fail on downstream reads.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
