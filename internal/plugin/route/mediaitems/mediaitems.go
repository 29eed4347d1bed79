// Package mediaitems mounts the REST endpoints of every media kind.
package mediaitems

import (
	"net/http"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/plugin/route/routeutil"
	registryroute "github.com/chirino/media-tracker/internal/registry/route"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/chirino/media-tracker/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Path segments of each kind below a category.
const (
	PathBooks      = "books"
	PathMovies     = "movies"
	PathTvShows    = "tv-shows"
	PathVideogames = "videogames"
)

// FilterRequest is the body of the filter endpoints.
type FilterRequest struct {
	Filter *model.MediaItemFilter `json:"filter"`
	SortBy []model.SortBy         `json:"sortBy" binding:"omitempty,dive"`
}

// SearchResponse groups cross-kind search hits by kind.
type SearchResponse struct {
	Books      []model.Book      `json:"books"`
	Movies     []model.Movie     `json:"movies"`
	TvShows    []model.TvShow    `json:"tvShows"`
	Videogames []model.Videogame `json:"videogames"`
}

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "mediaitems",
		Order: 20,
		Type:  registryroute.RouteTypeMain,
		Loader: func(m registryroute.Mount) error {
			MountRoutes(m.Router, m.Services, m.Auth)
			return nil
		},
	})
}

// MountRoutes mounts the item endpoints of every kind and the cross-kind search.
func MountRoutes(r *gin.Engine, svcs *service.Services, auth gin.HandlerFunc) {
	categories := r.Group("/v1/categories/:categoryId", auth)
	v1 := r.Group("/v1", auth)

	mountKind(categories, v1, PathBooks, svcs.Books)
	mountKind(categories, v1, PathMovies, svcs.Movies)
	mountKind(categories, v1, PathTvShows, svcs.TvShows)
	mountKind(categories, v1, PathVideogames, svcs.Videogames)

	v1.GET("/search", func(c *gin.Context) { searchAll(c, svcs) })
}

func mountKind[E any, P model.ItemPtr[E]](categories, v1 *gin.RouterGroup, path string, svc *service.MediaItemService[E, P]) {
	g := categories.Group("/" + path)
	resource := svc.Kind().Resource

	g.GET("", func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"))
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	})

	g.POST("/filter", func(c *gin.Context) {
		var req FilterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			routeutil.BadRequest(c, err)
			return
		}
		items, err := svc.FilterAndOrder(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"), req.Filter, req.SortBy)
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	})

	g.GET("/:itemId", func(c *gin.Context) {
		id := c.Param("itemId")
		item, err := svc.Get(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"), id)
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		if item == nil {
			routeutil.NotFound(c, resource, id)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	save := func(c *gin.Context, id string) {
		item := new(E)
		if err := c.ShouldBindJSON(item); err != nil {
			routeutil.BadRequest(c, err)
			return
		}
		base := P(item).Base()
		base.ID = id
		base.Owner = security.GetUserID(c)
		base.Category = c.Param("categoryId")

		saved, err := svc.Save(c.Request.Context(), item)
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		status := http.StatusOK
		if id == "" {
			status = http.StatusCreated
		}
		c.JSON(status, saved)
	}
	g.POST("", func(c *gin.Context) { save(c, "") })
	g.PUT("/:itemId", func(c *gin.Context) { save(c, c.Param("itemId")) })

	g.DELETE("/:itemId", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"), c.Param("itemId")); err != nil {
			routeutil.HandleError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	v1.POST("/"+path+"/search", func(c *gin.Context) {
		var req struct {
			Term   string                 `json:"term"`
			Filter *model.MediaItemFilter `json:"filter"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			routeutil.BadRequest(c, err)
			return
		}
		items, err := svc.Search(c.Request.Context(), security.GetUserID(c), req.Term, req.Filter)
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	})
}

// searchAll runs the term against every kind concurrently.
func searchAll(c *gin.Context, svcs *service.Services) {
	userID := security.GetUserID(c)
	term := c.Query("term")
	var resp SearchResponse

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		resp.Books, err = svcs.Books.Search(ctx, userID, term, nil)
		return err
	})
	g.Go(func() (err error) {
		resp.Movies, err = svcs.Movies.Search(ctx, userID, term, nil)
		return err
	})
	g.Go(func() (err error) {
		resp.TvShows, err = svcs.TvShows.Search(ctx, userID, term, nil)
		return err
	})
	g.Go(func() (err error) {
		resp.Videogames, err = svcs.Videogames.Search(ctx, userID, term, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		routeutil.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
