// Package middleware provides the gin middleware of the HTTP service.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

const (
	// HeaderRequestID is the header name for request ID.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the gin context key of the request ID.
	ContextKeyRequestID = "request_id"
)

// RequestID takes the request ID from X-Request-ID or generates a UUID,
// echoes it in the response and adds it to the context logger.
func RequestID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName:      HeaderRequestID,
		contextKey:      ContextKeyRequestID,
		contextEnricher: logging.WithRequestID,
	})
}

// GetRequestID returns the request ID, or "" before RequestID ran.
func GetRequestID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyRequestID)
}
