package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/cmd/legacyimport"
	"github.com/chirino/media-tracker/internal/cmd/migrate"
	"github.com/chirino/media-tracker/internal/cmd/serve"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "media-tracker",
		Usage: "Personal catalog of books, movies, tv shows and videogames",
		Commands: []*cli.Command{
			serve.Command(),
			migrate.Command(),
			legacyimport.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
