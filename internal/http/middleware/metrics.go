package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records one observation per request.
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, seconds float64)
}

// Metrics records request counts and latency by route template.
func Metrics(obs HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
