package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRoles lets through only callers whose role is in allowedRoles.
// Auth must run first.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "no role on request")
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			abort(c, http.StatusForbidden, "forbidden", "role "+role+" is not allowed")
			return
		}
		c.Next()
	}
}
