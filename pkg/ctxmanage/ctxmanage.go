package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIdKey = "trace_id"

// GetTraceIdOfRequest returns the trace id set by the logging middleware.
// A request that somehow bypassed the middleware still gets a usable id.
func GetTraceIdOfRequest(c *gin.Context) string {
	if v, ok := c.Get(TraceIdKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	id := uuid.NewString()
	c.Set(TraceIdKey, id)
	return id
}

func SetTraceId(c *gin.Context, id string) {
	c.Set(TraceIdKey, id)
}
