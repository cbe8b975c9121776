package middleware

import (
	"log/slog"
	"time"

	"packstore/pkg/ctxmanage"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Logger tags each request with a trace id and logs method, path, status
// and latency once the handler chain finishes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := c.Request.Header.Get("X-Trace-Id")
		if traceId == "" {
			traceId = uuid.NewString()
		}
		ctxmanage.SetTraceId(c, traceId)
		c.Writer.Header().Set("X-Trace-Id", traceId)

		start := time.Now()
		c.Next()

		slog.Info("request completed",
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("Path", c.Request.URL.Path),
			slog.Int("Status", c.Writer.Status()),
			slog.Duration("Duration", time.Since(start)),
		)
	}
}
