package cmd

import (
	"log/slog"

	"github.com/labnotify/labnotify/internal/config"
	"github.com/labnotify/labnotify/internal/database"
	"github.com/labnotify/labnotify/pkg/log"
	"github.com/spf13/cobra"
)

// migrateCmd applies the database schema manually.
func migrateCmd() *cobra.Command {
	var downAll bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, errConfig := config.Read(cfgFile)
			if errConfig != nil {
				return errConfig
			}

			action := database.MigrateUp
			if downAll {
				action = database.MigrateDn
			}

			dbConn := database.New(conf.DB.DSN, false, conf.DB.LogQueries)
			if errMigrate := dbConn.Migrate(cmd.Context(), action, conf.DB.DSN); errMigrate != nil {
				slog.Error("Could not migrate schema", log.ErrAttr(errMigrate))

				return errMigrate
			}

			slog.Info("Migration completed successfully")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&downAll, "down", "d", false, "Fully reverts all migrations")

	return cmd
}
