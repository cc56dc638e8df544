package cli

import (
	"errors"

	"bookingcrm/internal/config"
	"bookingcrm/internal/domain"
	"bookingcrm/internal/repositories"
	"bookingcrm/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newCreateAdminCmd(a *app) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an Admin user who can manage the other accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			sqlDB, err := config.OpenDB(cmd.Context(), a.env.Database)
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			svc := services.UserService{Users: repositories.UserRepository{DB: sqlDB}}
			u, err := svc.Create(cmd.Context(), services.UserInput{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     domain.RoleAdmin,
			})
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("admin created")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "login password, at least 6 characters")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
