package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/andrewpaige1/flashcards-ai/config"
	"github.com/andrewpaige1/flashcards-ai/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return migrate(cfg, logger.New(cfg.Debug))
		},
	}
}

func migrate(cfg *config.Config, log *slog.Logger) error {
	db, err := connect(cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := config.Migrate(db); err != nil {
		return err
	}

	log.Info("Database migrated", "type", cfg.Database.Type)
	return nil
}
