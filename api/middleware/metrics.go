package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"pantry/pkg/metrics"
)

// MetricsMiddleware records status and latency per route template, so path
// parameters do not explode label cardinality.
func MetricsMiddleware(recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		recorder.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
