package commands

import (
	"github.com/spf13/cobra"

	"github.com/betonops/reconcile-backend/internal/cli"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the reconciliation summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			service, store, _, err := openService(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := service.Stats(cmd.Context())
			if err != nil {
				return err
			}

			cli.PrintStats(stats)
			return nil
		},
	}
}
