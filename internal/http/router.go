package api

import (
	stdhttp "net/http"

	intconfig "bookingcrm/internal/config"
	"bookingcrm/internal/domain"
	h "bookingcrm/internal/http/handlers"
	"bookingcrm/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts every route of the API on a fresh gin engine.
func NewRouter(env intconfig.Env, api *h.API, log logrus.FieldLogger) *gin.Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery(), middleware.CORS(env.CORSOrigins))
	if api.Metrics != nil {
		r.Use(middleware.Metrics(api.Metrics))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		log.WithError(err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	if api.Metrics != nil && env.Metrics.Enabled {
		r.GET(env.Metrics.Path, gin.WrapH(api.Metrics.Handler()))
	}

	public := r.Group("/api")
	{
		public.GET("/health", api.Health)
		login := []gin.HandlerFunc{api.Login}
		if env.Auth.LoginRate != "" {
			limit, err := middleware.RateLimit(env.Auth.LoginRate)
			if err != nil {
				log.WithError(err).Warn("login rate limit disabled")
			} else {
				login = append([]gin.HandlerFunc{limit}, login...)
			}
		}
		public.POST("/auth/login", login...)
	}

	authed := r.Group("/api", middleware.Auth(api.Auth))
	{
		authed.GET("/db-check", api.DBCheck)
		authed.GET("/routes", api.Routes)

		bookings := authed.Group("/bookings")
		bookings.GET("", api.ListBookings)
		bookings.GET("/export", api.ExportBookings)
		bookings.GET("/reference", api.BookingReference)
		bookings.GET("/:id", api.GetBooking)
		bookings.POST("", api.CreateBooking)
		bookings.PUT("/:id", api.UpdateBooking)
		bookings.DELETE("/:id", api.DeleteBooking)

		authed.GET("/dashboard/bookings", api.BookingDashboard)

		leads := authed.Group("/leads")
		leads.GET("", api.ListLeads)
		leads.POST("", api.CreateLead)
		leads.GET("/export", api.ExportLeads)
		leads.POST("/bulk-update", api.BulkUpdateLeads)
		leads.POST("/bulk-delete", api.BulkDeleteLeads)

		reference := authed.Group("/reference")
		reference.GET("/agents", api.Agents)
		reference.GET("/statuses", api.Statuses)

		users := authed.Group("/users", middleware.RequireRoles(domain.RoleAdmin))
		users.GET("", api.ListUsers)
		users.POST("", api.CreateUser)
		users.PUT("/:id", api.UpdateUser)
		users.DELETE("/:id", api.DeleteUser)
	}

	api.SetRouter(r)
	return r
}
