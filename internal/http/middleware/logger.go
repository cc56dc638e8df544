package middleware

import (
	"time"

	"bookingcrm/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger attaches a request scoped entry to the request context and writes
// one access line per request.
func Logger(base logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := base.WithField("request_id", GetRequestID(c))
		c.Request = c.Request.WithContext(utils.WithLogger(c.Request.Context(), entry))

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"module":     "HTTP",
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"ip":         c.ClientIP(),
		}
		switch {
		case status >= 500:
			entry.WithFields(fields).Error("request failed")
		case status >= 400:
			entry.WithFields(fields).Warn("request rejected")
		default:
			entry.WithFields(fields).Info("request served")
		}
	}
}
