package handlers

import (
	"database/sql"
	"sync"

	"bookingcrm/internal/listing"
	"bookingcrm/internal/metrics"
	"bookingcrm/internal/services"

	"github.com/gin-gonic/gin"
)

// API groups the handlers and the services they call.
type API struct {
	Bookings  services.BookingService
	Leads     services.LeadService
	Users     services.UserService
	Auth      services.AuthService
	Dashboard services.DashboardService
	Export    services.ExportService
	Reference listing.ReferenceSource
	Metrics   *metrics.Metrics
	DB        *sql.DB
	Limits    PageLimits

	routerMu sync.RWMutex
	router   *gin.Engine
}

// SetRouter stores the active gin engine for /api/routes.
func (a *API) SetRouter(r *gin.Engine) {
	a.routerMu.Lock()
	defer a.routerMu.Unlock()
	a.router = r
}

func (a *API) observeBulk(action string, err error) {
	if a.Metrics != nil {
		a.Metrics.ObserveBulk("leads", action, err)
	}
}
