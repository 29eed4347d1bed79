// Package catalogs mounts the external catalog lookup endpoints.
package catalogs

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chirino/media-tracker/internal/catalog"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/plugin/route/routeutil"
	registryroute "github.com/chirino/media-tracker/internal/registry/route"
	"github.com/chirino/media-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "catalogs",
		Order: 30,
		Type:  registryroute.RouteTypeMain,
		Loader: func(m registryroute.Mount) error {
			MountRoutes(m.Router, m.Catalogs, m.Services, m.Auth)
			return nil
		},
	})
}

// MountRoutes mounts the catalog endpoints. Details are returned as unsaved
// media items of the requested kind.
func MountRoutes(r *gin.Engine, catalogs *catalog.Catalogs, svcs *service.Services, auth gin.HandlerFunc) {
	g := r.Group("/v1/catalog", auth)

	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"mediaTypes": catalogs.MediaTypes()})
	})
	g.GET("/:mediaType/search", func(c *gin.Context) { search(c, catalogs) })
	g.GET("/:mediaType/items/:catalogId", func(c *gin.Context) { details(c, catalogs, svcs) })
}

func provider(c *gin.Context, catalogs *catalog.Catalogs) (model.MediaType, catalog.Provider, bool) {
	mediaType, ok := model.ParseMediaType(c.Param("mediaType"))
	if !ok {
		routeutil.BadRequest(c, fmt.Errorf("unknown media type %q", c.Param("mediaType")))
		return "", nil, false
	}
	p, err := catalogs.For(mediaType)
	if err != nil {
		routeutil.HandleError(c, err)
		return "", nil, false
	}
	return mediaType, p, true
}

func search(c *gin.Context, catalogs *catalog.Catalogs) {
	_, p, ok := provider(c, catalogs)
	if !ok {
		return
	}
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "term is required", "field": "term"})
		return
	}
	results, err := p.Search(c.Request.Context(), term)
	if err != nil {
		routeutil.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

func details(c *gin.Context, catalogs *catalog.Catalogs, svcs *service.Services) {
	mediaType, p, ok := provider(c, catalogs)
	if !ok {
		return
	}
	entry, err := p.Details(c.Request.Context(), c.Param("catalogId"))
	if err != nil {
		routeutil.HandleError(c, err)
		return
	}

	var item any
	switch mediaType {
	case model.MediaTypeBook:
		item = svcs.Books.Kind().FromCatalog(entry)
	case model.MediaTypeMovie:
		item = svcs.Movies.Kind().FromCatalog(entry)
	case model.MediaTypeTvShow:
		item = svcs.TvShows.Kind().FromCatalog(entry)
	case model.MediaTypeVideogame:
		item = svcs.Videogames.Kind().FromCatalog(entry)
	}
	c.JSON(http.StatusOK, item)
}
