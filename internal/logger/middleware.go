package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CorrelationIDHeader carries the request correlation identifier.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationContextKey = "fieldlogCorrelationID"

// Middleware assigns a correlation ID to every request, honoring one supplied
// by the client, echoes it back in the response headers, and logs the request
// once it completes.
func Middleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(correlationContextKey, id)
		c.Writer.Header().Set(CorrelationIDHeader, id)

		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("correlation_id", id),
		)
	}
}

// CorrelationID extracts the correlation ID from the request context.
func CorrelationID(c *gin.Context) string {
	value, exists := c.Get(correlationContextKey)
	if !exists {
		return ""
	}
	id, _ := value.(string)
	return id
}
