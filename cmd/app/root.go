package main

import (
	"github.com/spf13/cobra"

	"github.com/waste3d/courseforge/config"
	"github.com/waste3d/courseforge/internal/infrastructure/logger"
	"github.com/waste3d/courseforge/internal/infrastructure/repository"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "courseforge",
		Short:         "Course authoring and delivery backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory with app.env")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
	)
	return root
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := repository.Open(cfg.DBDriver, cfg.DSN())
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}
			log.Info("schema migrated", "driver", cfg.DBDriver)
			return nil
		},
	}
}
