package cli

import (
	"quizgate/config"
	"quizgate/logger"
	"quizgate/models"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogPretty)

			db, err := config.InitDB(cfg)
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				log.Error().Err(err).Msg("database migration failed")
				return err
			}
			log.Info().Msg("database migration completed")
			return nil
		},
	}
}
