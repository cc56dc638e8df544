package handlers

import (
	"net/http"

	"bookingcrm/internal/db"

	"github.com/gin-gonic/gin"
)

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "bookingcrm is running"})
}

// DBCheck pings the database and reports which tables are present.
func (a *API) DBCheck(c *gin.Context) {
	if a.DB == nil {
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database is not connected", nil)
		return
	}
	ctx := c.Request.Context()
	if err := a.DB.PingContext(ctx); err != nil {
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database ping failed", err.Error())
		return
	}
	tables := gin.H{}
	for _, t := range []string{"users", "bookings", "leads", "lead_statuses"} {
		tables[t] = db.HasTable(ctx, a.DB, t)
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "tables": tables})
}

func (a *API) Routes(c *gin.Context) {
	a.routerMu.RLock()
	r := a.router
	a.routerMu.RUnlock()
	if r == nil {
		respondError(c, http.StatusServiceUnavailable, "not_ready", "router is not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method": rt.Method,
			"path":   rt.Path,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
