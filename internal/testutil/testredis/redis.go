package testredis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Redis holds the connection details of a running Redis container.
type Redis struct {
	// Addr is host:port.
	Addr string
	// URL is a redis:// URL for Addr.
	URL string
}

// StartRedis starts a disposable Redis container. Tests calling it are skipped
// in -short mode. MEDIA_TRACKER_TEST_REDIS_IMAGE overrides the image.
func StartRedis(tb testing.TB) Redis {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping Redis container test in short mode")
	}

	image := os.Getenv("MEDIA_TRACKER_TEST_REDIS_IMAGE")
	if image == "" {
		image = "redis:7"
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		tb.Fatalf("start redis container: %v", err)
	}

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			tb.Errorf("terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		tb.Fatalf("get redis host: %v", err)
	}
	mappedPort, err := container.MappedPort(ctx, "6379")
	if err != nil {
		tb.Fatalf("get redis mapped port: %v", err)
	}

	addr := fmt.Sprintf("%s:%s", host, mappedPort.Port())
	return Redis{Addr: addr, URL: "redis://" + addr}
}
