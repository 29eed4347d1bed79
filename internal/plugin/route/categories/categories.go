package categories

import (
	"net/http"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/plugin/route/routeutil"
	registryroute "github.com/chirino/media-tracker/internal/registry/route"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/chirino/media-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "categories",
		Order: 10,
		Type:  registryroute.RouteTypeMain,
		Loader: func(m registryroute.Mount) error {
			MountRoutes(m.Router, m.Services, m.Auth)
			return nil
		},
	})
}

// MountRoutes mounts the category, group and own platform endpoints.
func MountRoutes(r *gin.Engine, svcs *service.Services, auth gin.HandlerFunc) {
	g := r.Group("/v1/categories", auth)

	g.GET("", func(c *gin.Context) { listCategories(c, svcs.Categories) })
	g.POST("", func(c *gin.Context) { saveCategory(c, svcs.Categories, "") })
	g.GET("/:categoryId", func(c *gin.Context) { getCategory(c, svcs.Categories) })
	g.PUT("/:categoryId", func(c *gin.Context) { saveCategory(c, svcs.Categories, c.Param("categoryId")) })
	g.DELETE("/:categoryId", func(c *gin.Context) { deleteCategory(c, svcs.Categories) })

	mountContainer(g.Group("/:categoryId/groups"), "group", "groupId", svcs.Groups)
	mountContainer(g.Group("/:categoryId/own-platforms"), "own platform", "ownPlatformId", svcs.OwnPlatforms)
}

func saveOptions(c *gin.Context) service.SaveOptions {
	return service.SaveOptions{AllowSameName: routeutil.QueryBool(c, "allowSameName", false)}
}

func deleteOptions(c *gin.Context) service.DeleteOptions {
	return service.DeleteOptions{Force: routeutil.QueryBool(c, "force", false)}
}

func listCategories(c *gin.Context, svc *service.CategoryService) {
	categories, err := svc.List(c.Request.Context(), security.GetUserID(c))
	if err != nil {
		routeutil.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

func getCategory(c *gin.Context, svc *service.CategoryService) {
	id := c.Param("categoryId")
	category, err := svc.Get(c.Request.Context(), security.GetUserID(c), id)
	if err != nil {
		routeutil.HandleError(c, err)
		return
	}
	if category == nil {
		routeutil.NotFound(c, "category", id)
		return
	}
	c.JSON(http.StatusOK, category)
}

// saveCategory creates a category when id is empty, otherwise replaces it.
func saveCategory(c *gin.Context, svc *service.CategoryService, id string) {
	var category model.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		routeutil.BadRequest(c, err)
		return
	}
	category.ID = id
	category.Owner = security.GetUserID(c)

	saved, err := svc.Save(c.Request.Context(), &category, saveOptions(c))
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

func deleteCategory(c *gin.Context, svc *service.CategoryService) {
	err := svc.Delete(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"), deleteOptions(c))
	if err != nil {
		routeutil.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// mountContainer mounts the CRUD endpoints of a category-scoped record kind.
func mountContainer[E any, P model.ScopedPtr[E]](g *gin.RouterGroup, resource, idParam string, svc *service.ContainerService[E, P]) {
	g.GET("", func(c *gin.Context) {
		docs, err := svc.List(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"))
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": docs})
	})

	g.GET("/:"+idParam, func(c *gin.Context) {
		id := c.Param(idParam)
		doc, err := svc.Get(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"), id)
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		if doc == nil {
			routeutil.NotFound(c, resource, id)
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	save := func(c *gin.Context, id string) {
		doc := new(E)
		if err := c.ShouldBindJSON(doc); err != nil {
			routeutil.BadRequest(c, err)
			return
		}
		p := P(doc)
		p.SetID(id)
		p.SetOwner(security.GetUserID(c))
		p.SetCategory(c.Param("categoryId"))

		saved, err := svc.Save(c.Request.Context(), doc, saveOptions(c))
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
	g.PUT("/:"+idParam, func(c *gin.Context) { save(c, c.Param(idParam)) })

	g.DELETE("/:"+idParam, func(c *gin.Context) {
		err := svc.Delete(c.Request.Context(), security.GetUserID(c), c.Param("categoryId"), c.Param(idParam), deleteOptions(c))
		if err != nil {
			routeutil.HandleError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
