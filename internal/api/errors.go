package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/httputil"
	"github.com/adminkit/toggle/internal/metrics"
	"github.com/adminkit/toggle/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeInternalError       = "internal_error"
	ErrCodeUnauthorized        = "unauthorized"
	ErrCodeResourceNotFound    = "resource_not_found"
	ErrCodeRecordNotFound      = "record_not_found"
	ErrCodeAttributeRequired   = "attribute_required"
	ErrCodeUnknownAttribute    = "unknown_attribute"
	ErrCodeAttributeNotBoolean = "attribute_not_boolean"
)

// Client-visible messages for the toggle lifecycle errors.
const (
	MsgUnauthorized        = "Unauthorized"
	MsgResourceNotFound    = "Resource not found"
	MsgRecordNotFound      = "Record not found"
	MsgAttributeRequired   = "Attribute required"
	MsgUnknownAttribute    = "Unknown attribute"
	MsgAttributeNotBoolean = "Attribute is not boolean"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a service error to its status and fixed message.
// Unrecognized errors are logged and reported as 500 without detail.
func respondServiceError(c *gin.Context, log *logrus.Logger, op string, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusForbidden, ErrCodeUnauthorized, MsgUnauthorized)
	case errors.Is(err, models.ErrResourceNotFound):
		respondError(c, http.StatusNotFound, ErrCodeResourceNotFound, MsgResourceNotFound)
	case errors.Is(err, models.ErrRecordNotFound):
		respondError(c, http.StatusNotFound, ErrCodeRecordNotFound, MsgRecordNotFound)
	case errors.Is(err, models.ErrAttributeRequired):
		respondError(c, http.StatusBadRequest, ErrCodeAttributeRequired, MsgAttributeRequired)
	case errors.Is(err, models.ErrUnknownAttribute):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeUnknownAttribute, MsgUnknownAttribute)
	case errors.Is(err, models.ErrAttributeNotBoolean):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeAttributeNotBoolean, MsgAttributeNotBoolean)
	case errors.Is(err, models.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		log.WithError(err).WithField("request_id", httputil.RequestID(c)).Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
