package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

const (
	// HeaderCorrelationID is the header name for correlation ID. It spans a
	// whole business transaction across services, unlike the request ID.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyCorrelationID is the gin context key of the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// CorrelationID propagates X-Correlation-ID from upstream, or starts a new
// transaction with a fresh UUID.
func CorrelationID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName:      HeaderCorrelationID,
		contextKey:      ContextKeyCorrelationID,
		contextEnricher: logging.WithCorrelationID,
	})
}

// GetCorrelationID returns the correlation ID, or "" before CorrelationID ran.
func GetCorrelationID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyCorrelationID)
}
