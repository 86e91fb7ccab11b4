package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/middleware"
)

// FieldHandler serves presenter descriptors.
type FieldHandler struct {
	repo FieldRepository
	log  *logrus.Logger
}

// NewFieldHandler creates a FieldHandler.
func NewFieldHandler(repo FieldRepository, log *logrus.Logger) *FieldHandler {
	return &FieldHandler{repo: repo, log: log}
}

// Get handles GET /api/v1/fields/:resource/:id/:attribute.
func (h *FieldHandler) Get(c *gin.Context) {
	d, err := h.repo.Describe(
		c.Request.Context(), middleware.AuthContext(c), c.Param("resource"), c.Param("id"), c.Param("attribute"),
	)
	if err != nil {
		respondServiceError(c, h.log, "describing field", err)
		return
	}

	c.JSON(http.StatusOK, d)
}
