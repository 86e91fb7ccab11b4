// Package api provides HTTP handlers for the toggle service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/db"
)

// DBChecker is the subset of the pool the health endpoints need.
type DBChecker interface {
	HealthCheck(ctx context.Context) error
	TableExists(ctx context.Context, table string) (bool, error)
}

// poolStater is implemented by checkers backed by a connection pool.
type poolStater interface {
	Stat() (acquired, idle, total int32)
}

// ClientCounter reports live websocket connections.
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db        DBChecker
	redis     redis.Cmdable
	hub       ClientCounter
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. Any dependency may be nil.
func NewHealthHandler(dbc DBChecker, rdb redis.Cmdable, hub ClientCounter, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		db:        dbc,
		redis:     rdb,
		hub:       hub,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Pool   *poolStats        `json:"pool,omitempty"`
}

type poolStats struct {
	Acquired int32 `json:"acquired"`
	Idle     int32 `json:"idle"`
	Total    int32 `json:"total"`
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"websocket_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health. It always returns 200.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	if h.hub != nil {
		resp.WSClients = h.hub.ClientCount()
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready. It checks the database, the service's
// own tables, and redis when a session guard needs it.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database": "ok",
		"schema":   "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	fail := func(check string) {
		checks[check] = "error"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.db == nil {
		fail("database")
		checks["schema"] = "unknown"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		fail("database")
		checks["schema"] = "unknown"
	} else if err := h.checkSchema(ctx); err != nil {
		h.log.WithError(err).Error("readiness: schema check failed")
		fail("schema")
	}

	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.log.WithError(err).Error("readiness: redis ping failed")
			fail("redis")
		}
	}

	resp := readinessResponse{
		Status: status,
		Checks: checks,
	}

	if ps, ok := h.db.(poolStater); ok {
		acquired, idle, total := ps.Stat()
		resp.Pool = &poolStats{Acquired: acquired, Idle: idle, Total: total}
	}

	c.JSON(statusCode, resp)
}

// checkSchema verifies the migrated tables exist.
func (h *HealthHandler) checkSchema(ctx context.Context) error {
	for _, table := range db.OwnedTables {
		ok, err := h.db.TableExists(ctx, table)
		if err != nil {
			return fmt.Errorf("schema check: %w", err)
		}
		if !ok {
			return fmt.Errorf("schema check: table %s missing", table)
		}
	}

	return nil
}
