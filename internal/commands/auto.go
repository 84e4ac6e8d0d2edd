package commands

import (
	"github.com/spf13/cobra"

	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/cli"
)

func newAutoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Automatically reconcile unmatched transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			service, store, _, err := openService(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			minScore, _ := cmd.Flags().GetFloat64("min-score")
			if minScore <= 0 {
				minScore = cfg.Reconciliation.AutoMinScore
			}
			if minScore <= 0 {
				minScore = reconcile.DefaultAutoMinScore
			}

			result, err := service.AutoReconcile(cmd.Context(), minScore)
			if err != nil {
				return err
			}

			cli.PrintAutoSummary(result, minScore)
			return nil
		},
	}

	cmd.Flags().Float64("min-score", 0, "Minimum confidence score (default from config)")

	return cmd
}
