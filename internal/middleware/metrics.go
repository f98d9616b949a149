package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/defense-scheduler-api/internal/service"
)

// Metrics captures per request metrics labelled by the route template.
// Requests that matched no route share a single label; recording their
// raw paths would let scanners grow the label space without bound. Probe
// and scrape traffic is not observed, it fires every few seconds.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" || path == "/metrics" {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
