package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saehim/attendance-backend/internal/observability"
)

type MetricsMiddleware struct {
	metrics *observability.Metrics
}

func NewMetricsMiddleware(metrics *observability.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Track records request latency and in-flight gauge per route template.
func (mm *MetricsMiddleware) Track() gin.HandlerFunc {
	return func(c *gin.Context) {
		if mm == nil || mm.metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		mm.metrics.ApiInflightInc()
		c.Next()
		mm.metrics.ApiInflightDec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		mm.metrics.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
