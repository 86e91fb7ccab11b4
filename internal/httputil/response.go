// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// RespondError writes a standardized JSON error response and aborts the request.
// The body is {"error": message, "code": code, "request_id": id}.
func RespondError(c *gin.Context, status int, code, message string) {
	resp := gin.H{
		"error": message,
		"code":  code,
	}

	if rid := RequestID(c); rid != "" {
		resp["request_id"] = rid
	}

	c.AbortWithStatusJSON(status, resp)
}

// RequestID returns the id assigned by the request id middleware, if any.
func RequestID(c *gin.Context) string {
	if rid, exists := c.Get(RequestIDKey); exists {
		if s, ok := rid.(string); ok {
			return s
		}
	}

	return ""
}
