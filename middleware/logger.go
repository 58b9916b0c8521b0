package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger writes one zap line per request after the handler chain runs.
// When the Auth middleware has resolved a member, the line carries the
// member id so a trace can be tied back to an account.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("trace_id", GetTraceID(c)),
			zap.String("client_ip", c.ClientIP()),
		}
		if memberID := GetMemberID(c); memberID != 0 {
			fields = append(fields, zap.Int64("member_id", memberID))
		}
		log.Info("http", fields...)
	}
}
