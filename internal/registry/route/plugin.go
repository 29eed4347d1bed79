// Package route collects the HTTP route sets of the tracker. Route packages
// register from init and the server mounts them in order.
package route

import (
	"cmp"
	"slices"

	"github.com/chirino/media-tracker/internal/catalog"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/legacy"
	"github.com/chirino/media-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

// Mount is what a route set receives when it is mounted. Management route
// sets only get Router; the rest is nil on the management listener.
type Mount struct {
	Router   *gin.Engine
	Config   *config.Config
	Services *service.Services
	Catalogs *catalog.Catalogs
	Importer *legacy.Importer
	// Auth resolves the caller of a user-scoped endpoint.
	Auth gin.HandlerFunc
}

// RouterLoader mounts one route set.
type RouterLoader func(m Mount) error

// RouteType picks the listener a route set is mounted on.
type RouteType int

const (
	// RouteTypeMain holds the user-facing /v1 API.
	RouteTypeMain RouteType = iota
	// RouteTypeManagement holds health, readiness and metrics. Without a
	// management port these share the main listener.
	RouteTypeManagement
)

// Plugin is a registered route set. Lower Order mounts first.
type Plugin struct {
	Name   string
	Order  int
	Type   RouteType
	Loader RouterLoader
}

var plugins []Plugin

// Register adds a route set.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

func ofType(t RouteType) []Plugin {
	var out []Plugin
	for _, p := range plugins {
		if p.Type == t {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b Plugin) int { return cmp.Compare(a.Order, b.Order) })
	return out
}

// MountAll mounts every route set of type t onto m.Router.
func MountAll(t RouteType, m Mount) error {
	for _, p := range ofType(t) {
		if err := p.Loader(m); err != nil {
			return &MountError{Route: p.Name, Err: err}
		}
	}
	return nil
}

// MountError names the route set that failed to mount.
type MountError struct {
	Route string
	Err   error
}

func (e *MountError) Error() string { return "mount " + e.Route + " routes: " + e.Err.Error() }

func (e *MountError) Unwrap() error { return e.Err }
