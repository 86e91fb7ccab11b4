package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/auth"
	"github.com/adminkit/toggle/internal/dbpool"
	"github.com/adminkit/toggle/internal/middleware"
	"github.com/adminkit/toggle/internal/security"
	"github.com/adminkit/toggle/internal/tracing"
	"github.com/adminkit/toggle/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	Pool          *dbpool.Pool
	Redis         redis.Cmdable
	Hub           *ws.Hub
	Toggles       ToggleRepository
	Fields        FieldRepository
	Audit         AuditRepository
	Resources     ResourceRepository
	Guards        []auth.Guard
	BruteForce    *security.BruteForceGuard
	AllowedGuards []string
	CORSOrigins   []string
	Version       string
	Tracing       bool
}

// Router-level limits.
const (
	rateLimit = middleware.DefaultRateLimit
	rateBurst = middleware.DefaultRateBurst
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: true,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// newHealthHandler keeps nil pointers out of the checker interfaces.
func newHealthHandler(deps *RouterDeps) *HealthHandler {
	var dbc DBChecker
	if deps.Pool != nil {
		dbc = deps.Pool
	}

	var hub ClientCounter
	if deps.Hub != nil {
		hub = deps.Hub
	}

	return NewHealthHandler(dbc, deps.Redis, hub, deps.Log, deps.Version)
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := newHealthHandler(deps)
	toggles := NewToggleHandler(deps.Toggles, log)
	fields := NewFieldHandler(deps.Fields, log)
	audit := NewAuditHandler(deps.Audit, deps.AllowedGuards, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Every other route resolves guards. Handlers decide what the context allows.
	api.Use(middleware.ResolveAuth(deps.Guards, deps.BruteForce, log))

	api.POST("/toggle/:resource/:resourceId", toggles.Toggle)
	api.GET("/fields/:resource/:id/:attribute", fields.Get)

	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)

	if deps.Hub != nil {
		api.GET("/ws", wsHandler(ctx, wsDeps{
			log:         log,
			hub:         deps.Hub,
			resources:   deps.Resources,
			guards:      deps.Guards,
			allowed:     deps.AllowedGuards,
			corsOrigins: deps.CORSOrigins,
		}))
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	if deps.Tracing {
		return middleware.Tracing(tracing.ServiceName)(r)
	}

	return r
}
