// Package legacyimport implements the import sub-command, which loads a
// legacy export file straight into the store without a running server.
package legacyimport

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/cmd/serve"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/legacy"
	"github.com/chirino/media-tracker/internal/service"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// Command returns the import sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var user, file, platformName, platformIcon string
	return &cli.Command{
		Name:  "import",
		Usage: "Import a legacy export file for a user",
		Flags: append(serve.StoreFlags(&cfg),
			&cli.StringFlag{
				Name:        "user",
				Category:    "Import:",
				Destination: &user,
				Usage:       "Owner of the imported categories and items",
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "file",
				Category:    "Import:",
				Destination: &file,
				Usage:       "Path of the legacy export (JSON)",
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "platform-name",
				Category:    "Import:",
				Sources:     cli.EnvVars("MEDIA_TRACKER_IMPORT_DEFAULT_PLATFORM_NAME"),
				Destination: &platformName,
				Value:       cfg.ImportDefaultPlatformName,
				Usage:       "Name of the own platform given to owned items",
			},
			&cli.StringFlag{
				Name:        "platform-icon",
				Category:    "Import:",
				Destination: &platformIcon,
				Usage:       "Icon of the own platform given to owned items",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			stats, err := Run(config.WithContext(ctx, &cfg), &cfg, user, file, legacy.Options{
				PlatformName: platformName,
				PlatformIcon: platformIcon,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "imported %d categories, %d items and %d own platforms in %s\n",
				stats.Categories, stats.Items, stats.OwnPlatforms, stats.Duration)
			return nil
		},
	}
}

// Run imports the export stored at path for user.
func Run(ctx context.Context, cfg *config.Config, user, path string, opts legacy.Options) (*legacy.Stats, error) {
	if strings.TrimSpace(user) == "" {
		return nil, fmt.Errorf("--user must not be blank")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy export: %w", err)
	}
	var export legacy.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse legacy export %s: %w", path, err)
	}

	store, err := serve.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn("Failed to close store", "err", err)
		}
	}()

	log.Info("Importing legacy export", "file", path, "user", user, "categories", len(export.Categories))
	return legacy.NewImporter(service.New(store), nil).Import(ctx, user, &export, opts)
}
