package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDKey is the gin context key holding the request trace id.
	TraceIDKey = "trace_id"
	// TraceIDHeader carries the trace id on requests and responses, so a
	// client-supplied id survives end to end.
	TraceIDHeader = "X-Trace-ID"
)

// TraceID assigns every request a trace id. An incoming X-Trace-ID is
// honored; otherwise a fresh UUID is minted. The id is echoed on the
// response and stored in the context for the logger and audit writer.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" outside the middleware.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
