package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LiezGoo/scheduling-system-sub000/internal/service"
)

// Metrics records duration and status per route. A nil service disables
// collection without touching the handler chain.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		// FullPath is empty for unmatched routes; fall back to the raw
		// path so 404s still show up.
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
