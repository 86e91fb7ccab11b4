package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/middleware"
	"github.com/adminkit/toggle/internal/models"
)

// ToggleHandler serves the toggle mutation endpoint.
type ToggleHandler struct {
	repo ToggleRepository
	log  *logrus.Logger
}

// NewToggleHandler creates a ToggleHandler.
func NewToggleHandler(repo ToggleRepository, log *logrus.Logger) *ToggleHandler {
	return &ToggleHandler{repo: repo, log: log}
}

// toggleBody is the request body, accepted as JSON or form data.
type toggleBody struct {
	Attribute string  `json:"attribute" form:"attribute"`
	LabelKey  *string `json:"labelKey" form:"labelKey"`
}

// Toggle handles POST /api/v1/toggle/:resource/:resourceId.
func (h *ToggleHandler) Toggle(c *gin.Context) {
	// A body that fails to bind is treated as empty, so the service's
	// check order still decides the response.
	var body toggleBody
	_ = c.ShouldBind(&body) //nolint:errcheck // see above

	if body.Attribute == "" {
		body.Attribute = c.Query("attribute")
	}
	if body.LabelKey == nil {
		if lk, ok := c.GetQuery("labelKey"); ok {
			body.LabelKey = &lk
		}
	}

	req := models.ToggleRequest{
		Resource:   c.Param("resource"),
		ResourceID: c.Param("resourceId"),
		Attribute:  body.Attribute,
		LabelKey:   body.LabelKey,
	}

	res, err := h.repo.Toggle(c.Request.Context(), middleware.AuthContext(c), req)
	if err != nil {
		respondServiceError(c, h.log, "toggling attribute", err)
		return
	}

	c.JSON(http.StatusOK, res)
}
