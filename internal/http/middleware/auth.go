package middleware

import (
	"net/http"
	"strings"

	"bookingcrm/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (domain.RequestContext, error)
}

// Auth requires a valid bearer token and stores the caller in the context.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		rc, err := parser.Parse(strings.TrimSpace(token))
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Set(userIDKey, int64(rc.UserID))
		c.Set(userRoleKey, rc.Role)
		c.Next()
	}
}

// Caller returns the authenticated user, ok=false when Auth did not run.
func Caller(c *gin.Context) (domain.RequestContext, bool) {
	role := c.GetString(userRoleKey)
	if role == "" {
		return domain.RequestContext{}, false
	}
	return domain.RequestContext{UserID: domain.ID(c.GetInt64(userIDKey)), Role: role}, true
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       code,
		"request_id": GetRequestID(c),
		"message":    msg,
	})
}
