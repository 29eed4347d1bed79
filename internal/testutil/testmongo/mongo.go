// Package testmongo runs MongoDB in a container for store tests.
package testmongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// StartMongo starts a disposable MongoDB server and returns its URI. The
// container is removed when tb finishes. Tests calling it are skipped in
// -short mode, and MEDIA_TRACKER_TEST_MONGO_IMAGE overrides the image.
func StartMongo(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("mongodb container tests are skipped in short mode")
	}
	image := "mongo:7"
	if v := os.Getenv("MEDIA_TRACKER_TEST_MONGO_IMAGE"); v != "" {
		image = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	container, err := mongodb.Run(ctx, image)
	testcontainers.CleanupContainer(tb, container)
	if err != nil {
		tb.Fatalf("start mongodb container: %v", err)
	}
	uri, err := container.ConnectionString(ctx)
	if err != nil {
		tb.Fatalf("mongodb connection string: %v", err)
	}
	return uri
}
