// Package commands defines the reconcile CLI command tree.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/betonops/reconcile-backend/internal/application/reconcile"
	"github.com/betonops/reconcile-backend/internal/domain/matching"
	"github.com/betonops/reconcile-backend/internal/infrastructure/config"
	"github.com/betonops/reconcile-backend/internal/infrastructure/logging"
	"github.com/betonops/reconcile-backend/internal/infrastructure/storage"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Bank transaction reconciliation for concrete operations",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: config.yaml, falls back to env)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newAutoCommand())
	rootCmd.AddCommand(newStatsCommand())

	return rootCmd
}

// loadConfig resolves configuration from the --config flag, the default
// config file or the environment.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadOrEnvWithPath(path)
	}
	return config.LoadOrEnv()
}

// openService builds the storage-backed reconciliation service. The caller
// must Close the returned repository.
func openService(cmd *cobra.Command, cfg *config.Config) (*reconcile.Service, storage.Repository, *slog.Logger, error) {
	loggingCfg := cfg.Observability.Logging
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "cli")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}

	engine := matching.NewEngine(matching.DefaultConfig())
	service := reconcile.NewService(store, engine, logger)

	return service, store, logger, nil
}
