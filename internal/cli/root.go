// Package cli wires configuration, logging and the sync service into cobra commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tablesync/internal/config"
	"tablesync/internal/database"
	"tablesync/internal/logging"
	"tablesync/internal/service"
	"tablesync/internal/status"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "tablesync",
	Short:        "Full-refresh table synchronization from source databases into one target",
	Long:         `tablesync copies every table of the configured source databases into a single target database, replacing the target rows on each run. Runs are triggered over HTTP or by a timer.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config", "c",
		"configs/config.yml",
		"path to the configuration file",
	)

	rootCmd.AddCommand(serveCmd, runCmd, tablesCmd)
}

// loadConfig reads the configuration and applies its log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func newSyncService(cfg *config.Config) (*service.SyncService, *status.Tracker) {
	tracker := status.NewTracker()
	svc := service.NewSyncService(cfg, database.GormOpener{LogSQL: cfg.Log.SQL}, tracker)
	svc.RegisterObserver(&service.LogObserver{})
	return svc, tracker
}
