package commands

import (
	"github.com/spf13/cobra"

	"github.com/betonops/reconcile-backend/internal/cli"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			port, _ := cmd.Flags().GetInt("port")
			verbose, _ := cmd.Flags().GetBool("verbose")
			return cli.RunServe(cfg, port, verbose)
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on (overrides config)")

	return cmd
}
