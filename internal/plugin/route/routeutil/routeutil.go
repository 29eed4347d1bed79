// Package routeutil holds helpers shared by the REST route plugins.
package routeutil

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/catalog"
	"github.com/chirino/media-tracker/internal/legacy"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/gin-gonic/gin"
)

// HandleError writes the JSON error response matching err.
func HandleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError
	var conflict *registrystore.ConflictError
	var integrity *registrystore.ReferentialIntegrityError
	var storeErr *registrystore.StoreError
	var importErr *legacy.ImportError

	// A failed lookup inside a precondition wraps the store failure in the
	// semantic error; the outage wins.
	switch {
	case errors.As(err, &storeErr):
		log.Error("Store failure", "method", c.Request.Method, "path", c.FullPath(), "op", storeErr.Op, "collection", storeErr.Collection, "err", storeErr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "store_error", "error": "internal server error"})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &conflict):
		code := conflict.Code
		if code == "" {
			code = "conflict"
		}
		body := gin.H{"code": code, "error": err.Error()}
		if len(conflict.Details) > 0 {
			body["details"] = conflict.Details
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &integrity):
		c.JSON(http.StatusConflict, gin.H{"code": "referential_integrity", "error": err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.Is(err, catalog.ErrUnsupported):
		c.JSON(http.StatusBadRequest, gin.H{"code": "unsupported", "error": err.Error()})
	case errors.As(err, &importErr) && importErr.Category != "":
		c.JSON(http.StatusBadRequest, gin.H{"code": "import_failed", "error": err.Error()})
	default:
		log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "error": "internal server error"})
	}
}

// BadRequest writes a 400 response for a malformed request.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
}

// QueryBool reads a boolean query parameter. Missing or malformed values yield def.
func QueryBool(c *gin.Context, key string, def bool) bool {
	v := c.Query(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// NotFound writes the 404 response of a missing resource.
func NotFound(c *gin.Context, resource, id string) {
	HandleError(c, &registrystore.NotFoundError{Resource: resource, ID: id})
}
