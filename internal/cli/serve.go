package cli

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookingcrm/internal/config"
	router "bookingcrm/internal/http"
	"bookingcrm/internal/http/handlers"
	"bookingcrm/internal/repositories"
	"bookingcrm/internal/services"

	"github.com/NYTimes/gziphandler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	if a.env.GinMode != "" {
		gin.SetMode(a.env.GinMode)
	}

	sqlDB, err := config.OpenDB(ctx, a.env.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if migrate {
		if err := migrateUp(ctx, sqlDB); err != nil {
			return err
		}
	}

	api := a.newAPI(sqlDB)
	r := router.NewRouter(a.env, api, a.log)

	srv := &http.Server{
		Addr:              a.env.AppAddr,
		Handler:           gziphandler.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.env.AppAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info("server stopped")
	return nil
}

// newAPI wires repositories into services for the handlers.
func (a *app) newAPI(sqlDB *sql.DB) *handlers.API {
	bookings := repositories.BookingRepository{DB: sqlDB}
	users := repositories.UserRepository{DB: sqlDB}
	leads := repositories.LeadRepository{DB: sqlDB}
	reference := repositories.ReferenceRepository{DB: sqlDB}

	return &handlers.API{
		Bookings: services.BookingService{Bookings: bookings, Users: users},
		Leads:    services.LeadService{Leads: leads, Reference: reference},
		Users:    services.UserService{Users: users},
		Auth: services.AuthService{
			Users:  users,
			Secret: a.env.Auth.Secret(),
			TTL:    a.env.Auth.TokenTTL,
		},
		Dashboard: services.DashboardService{Bookings: bookings, Users: users},
		Export:    services.ExportService{},
		Reference: reference,
		Metrics:   a.metrics,
		DB:        sqlDB,
		Limits:    handlers.PageLimits{Default: a.env.PageSize, Max: a.env.MaxPageSize},
	}
}
