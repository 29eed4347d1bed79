package migrate

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/config"
	registrymigrate "github.com/chirino/media-tracker/internal/registry/migrate"
	"github.com/urfave/cli/v3"

	// Import plugins to trigger init() registration of their migrators.
	// Store plugins register their own migrators alongside their primary interface.
	_ "github.com/chirino/media-tracker/internal/plugin/store/mongo"
	_ "github.com/chirino/media-tracker/internal/plugin/store/postgres"
)

// Command returns the migrate sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-url",
				Sources: cli.EnvVars("MEDIA_TRACKER_DB_URL"),
				Usage:   "Database connection URL",
			},
			&cli.StringFlag{
				Name:    "db-name",
				Sources: cli.EnvVars("MEDIA_TRACKER_DB_NAME"),
				Usage:   "Database name",
				Value:   "media_tracker",
			},
			&cli.StringFlag{
				Name:    "db-kind",
				Sources: cli.EnvVars("MEDIA_TRACKER_DB_KIND"),
				Usage:   "Store backend (mongo|postgres|memory)",
				Value:   "mongo",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.DefaultConfig()
			cfg.DBURL = cmd.String("db-url")
			cfg.DBName = cmd.String("db-name")
			cfg.DatastoreType = cmd.String("db-kind")
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			if cfg.DatastoreType != "memory" && cfg.DBURL == "" {
				return fmt.Errorf("--db-url is required for the %s store", cfg.DatastoreType)
			}
			ctx = config.WithContext(ctx, &cfg)

			log.Info("Running migrations...", "db", cfg.DatastoreType)
			if err := registrymigrate.RunAll(ctx); err != nil {
				return err
			}
			log.Info("All migrations completed successfully")
			return nil
		},
	}
}
