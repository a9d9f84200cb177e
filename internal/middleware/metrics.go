package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jne-ops/opsboard-api/internal/service"
)

// Metrics returns middleware that captures request metrics using the
// provided service. Scrapes of /metrics and load-balancer health checks
// are not observed; they would dominate the histograms of a mostly idle
// internal dashboard.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if path == "/metrics" || path == "/health" {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
