// Package imports mounts the legacy export import endpoint.
package imports

import (
	"net/http"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/legacy"
	"github.com/chirino/media-tracker/internal/plugin/route/routeutil"
	registryroute "github.com/chirino/media-tracker/internal/registry/route"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "imports",
		Order: 40,
		Type:  registryroute.RouteTypeMain,
		Loader: func(m registryroute.Mount) error {
			MountRoutes(m.Router, m.Importer, m.Config, m.Auth)
			return nil
		},
	})
}

// MountRoutes mounts POST /v1/import/legacy. The body is a legacy export; the
// platformName and platformIcon query parameters override the configured
// defaults of the own platform given to owned items.
func MountRoutes(r *gin.Engine, importer *legacy.Importer, cfg *config.Config, auth gin.HandlerFunc) {
	r.POST("/v1/import/legacy", auth, func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			routeutil.BadRequest(c, err)
			return
		}
		var export legacy.Export
		if err := json.Unmarshal(body, &export); err != nil {
			routeutil.BadRequest(c, err)
			return
		}

		opts := legacy.Options{
			PlatformName: c.DefaultQuery("platformName", cfg.ImportDefaultPlatformName),
			PlatformIcon: c.DefaultQuery("platformIcon", cfg.ImportDefaultPlatformIcon),
		}
		stats, err := importer.Import(c.Request.Context(), security.GetUserID(c), &export, opts)
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, stats)
	})
}
