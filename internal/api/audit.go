package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/middleware"
	"github.com/adminkit/toggle/internal/models"
)

// Audit query limits.
const (
	defaultAuditLimit = 50
	maxRetentionDays  = 3650
)

// AuditHandler serves audit log endpoints. Both endpoints require one of the
// allowed guards.
type AuditHandler struct {
	repo    AuditRepository
	allowed []string
	log     *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(repo AuditRepository, allowed []string, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, allowed: allowed, log: log}
}

func (h *AuditHandler) authorize(c *gin.Context) (*models.Actor, bool) {
	actor, ok := middleware.AuthContext(c).SatisfiesAny(h.allowed)
	if !ok {
		respondError(c, http.StatusForbidden, ErrCodeUnauthorized, MsgUnauthorized)
		return nil, false
	}

	return actor, true
}

// Query handles GET /api/v1/audit.
func (h *AuditHandler) Query(c *gin.Context) {
	if _, ok := h.authorize(c); !ok {
		return
	}

	opts := models.AuditQueryOpts{
		Resource:   c.Query("resource"),
		ResourceID: c.Query("resource_id"),
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		Limit:      parseInt(c.Query("limit"), defaultAuditLimit),
		Offset:     parseOffset(c.Query("offset")),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}
		opts.Since = &t
	}

	entries, hasMore, err := h.repo.QueryAudit(c.Request.Context(), opts)
	if err != nil {
		h.log.WithError(err).Error("querying audit log")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	if entries == nil {
		entries = []models.AuditEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "has_more": hasMore})
}

// Purge handles DELETE /api/v1/audit?retention_days=N.
func (h *AuditHandler) Purge(c *gin.Context) {
	actor, ok := h.authorize(c)
	if !ok {
		return
	}

	days := 0
	if raw := c.Query("retention_days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxRetentionDays {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be between 1 and 3650")
			return
		}
		days = v
	}

	deleted, err := h.repo.PurgeOldEntries(c.Request.Context(), days)
	if err != nil {
		h.log.WithError(err).Error("purging audit log")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		return
	}

	h.log.WithFields(logrus.Fields{"action": "audit.purge", "actor_id": actor.ID, "deleted": deleted}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
