package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suravi/checkout/internal/metrics"
)

// Metrics records latency of each request under its route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
