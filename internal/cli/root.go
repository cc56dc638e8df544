// Package cli holds the bookingcrm commands: serve, migrate, browse and
// create-admin.
package cli

import (
	"fmt"
	"os"

	"bookingcrm/internal/config"
	"bookingcrm/internal/metrics"
	"bookingcrm/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is what PersistentPreRunE prepares for every subcommand.
type app struct {
	env     config.Env
	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	var envFiles []string

	cmd := &cobra.Command{
		Use:           "bookingcrm",
		Short:         "Booking CRM backend and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.LoadDotEnv(envFiles); err != nil {
				return fmt.Errorf("load dotenv: %w", err)
			}
			env, err := config.Parse()
			if err != nil {
				return err
			}
			a.env = env
			a.log = utils.NewLogger(env.LogLevel, env.LogFormat, cmd.ErrOrStderr())
			a.metrics = metrics.New()
			return nil
		},
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "dotenv files to load when present")

	cmd.AddCommand(newServeCmd(a), newMigrateCmd(a), newBrowseCmd(a), newCreateAdminCmd(a))
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
