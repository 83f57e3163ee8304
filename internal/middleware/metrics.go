package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/metrics"
)

// Metrics records request duration labelled by route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Seconds())
	}
}
