// Package testpg runs PostgreSQL in a container for store tests.
package testpg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const defaultImage = "postgres:17-alpine"

// StartPostgres starts a disposable PostgreSQL server holding an empty
// media_tracker database and returns its DSN. The container is removed when
// tb finishes. Tests calling it are skipped in -short mode, and
// MEDIA_TRACKER_TEST_POSTGRES_IMAGE overrides the image.
func StartPostgres(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("postgres container tests are skipped in short mode")
	}
	image := defaultImage
	if v := os.Getenv("MEDIA_TRACKER_TEST_POSTGRES_IMAGE"); v != "" {
		image = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("media_tracker"),
		postgres.WithUsername("tracker"),
		postgres.WithPassword("tracker"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(tb, container)
	if err != nil {
		tb.Fatalf("start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("postgres connection string: %v", err)
	}
	if err := ping(ctx, dsn); err != nil {
		tb.Fatalf("postgres never accepted connections: %v", err)
	}
	return dsn
}

// ping retries until the server answers. The container logs readiness before
// the port mapping is usable on some hosts.
func ping(ctx context.Context, dsn string) error {
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		conn, err := pgx.Connect(ctx, dsn)
		if err == nil {
			err = conn.Ping(ctx)
			_ = conn.Close(ctx)
			if err == nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return err
		case <-tick.C:
		}
	}
}
