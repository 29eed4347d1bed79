package system

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	registryroute "github.com/chirino/media-tracker/internal/registry/route"
)

// Pinger reports whether a backend the service depends on is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var ready atomic.Pointer[Pinger]

// MarkReady signals that the service has finished initializing. Readiness
// probes ping store from then on.
func MarkReady(store Pinger) {
	ready.Store(&store)
}

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "system",
		Order: 0,
		Type:  registryroute.RouteTypeManagement,
		Loader: func(m registryroute.Mount) error {
			r := m.Router
			// Liveness: process is up
			r.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			// Readiness: initialized and the store answers
			r.GET("/ready", func(c *gin.Context) {
				store := ready.Load()
				if store == nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
					return
				}
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				defer cancel()
				if err := (*store).Ping(ctx); err != nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, gin.H{"status": "ready"})
			})

			// Prometheus metrics
			r.GET("/metrics", gin.WrapH(promhttp.Handler()))

			return nil
		},
	})
}
