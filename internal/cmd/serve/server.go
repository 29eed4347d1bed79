package serve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/catalog"
	"github.com/chirino/media-tracker/internal/catalog/tmdb"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/legacy"
	"github.com/chirino/media-tracker/internal/model"
	_ "github.com/chirino/media-tracker/internal/plugin/route/catalogs"
	_ "github.com/chirino/media-tracker/internal/plugin/route/categories"
	_ "github.com/chirino/media-tracker/internal/plugin/route/imports"
	_ "github.com/chirino/media-tracker/internal/plugin/route/mediaitems"
	routesystem "github.com/chirino/media-tracker/internal/plugin/route/system"
	storemetrics "github.com/chirino/media-tracker/internal/plugin/store/metrics"
	registrycache "github.com/chirino/media-tracker/internal/registry/cache"
	registrymigrate "github.com/chirino/media-tracker/internal/registry/migrate"
	registryroute "github.com/chirino/media-tracker/internal/registry/route"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/chirino/media-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config          *config.Config
	Store           registrystore.Store
	Services        *service.Services
	Router          *gin.Engine
	Running         *RunningListener
	closeManagement func(context.Context) error
	closeCache      func() error
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.closeManagement != nil {
		_ = s.closeManagement(ctx)
	}
	err := s.Running.Close(ctx)
	if s.closeCache != nil {
		_ = s.closeCache()
	}
	if closeErr := s.Store.Close(ctx); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// OpenStore runs the migrations and opens the configured store, wrapped with
// latency metrics.
func OpenStore(ctx context.Context, cfg *config.Config) (registrystore.Store, error) {
	if err := registrymigrate.RunAll(ctx); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return storemetrics.Wrap(store), nil
}

// openCatalogs builds the configured catalog providers behind the catalog cache.
// The returned close function releases the cache.
func openCatalogs(ctx context.Context, cfg *config.Config) (*catalog.Catalogs, func() error) {
	providers := tmdb.Providers(cfg)
	if len(providers) == 0 {
		log.Info("No catalog provider configured; catalog lookups are disabled")
		return catalog.New(nil), nil
	}

	cacheLoader, err := registrycache.Select(cfg.CacheType)
	if err != nil {
		log.Warn("Catalog cache not available", "cache", cfg.CacheType, "err", err)
		return catalog.New(providers), nil
	}
	cache, err := cacheLoader(ctx)
	if err != nil {
		log.Warn("Failed to initialize catalog cache", "cache", cfg.CacheType, "err", err)
		return catalog.New(providers), nil
	}
	cached := make(map[model.MediaType]catalog.Provider, len(providers))
	for mediaType, p := range providers {
		cached[mediaType] = catalog.WithCache(p, cache, cfg.CatalogCacheTTL)
	}
	return catalog.New(cached), cache.Close
}

// StartServer initializes all subsystems and starts the HTTP listener.
// Use cfg.Listener.Port=0 for a random port. Actual port: Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting media tracker",
		"httpPort", cfg.Listener.Port,
		"db", cfg.DatastoreType,
		"cache", cfg.CacheType,
		"catalog", cfg.CatalogEnabled(),
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svcs := service.New(store)
	cats, closeCache := openCatalogs(ctx, cfg)

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize, cfg.ImportMaxBodySize))
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	if err := registryroute.MountAll(registryroute.RouteTypeMain, registryroute.Mount{
		Router:   router,
		Config:   cfg,
		Services: svcs,
		Catalogs: cats,
		Importer: legacy.NewImporter(svcs, nil),
		Auth:     security.AuthMiddleware(security.NewTokenResolver(cfg)),
	}); err != nil {
		return nil, err
	}

	// Management routes run on their own listener when a management port is
	// configured, otherwise on the main router.
	var closeManagement func(context.Context) error
	if cfg.ManagementListenerEnabled {
		mgmtRouter := gin.New()
		mgmtRouter.Use(gin.Recovery())
		if cfg.ManagementAccessLog {
			mgmtRouter.Use(security.AccessLogMiddleware())
		}
		if err := registryroute.MountAll(registryroute.RouteTypeManagement, registryroute.Mount{Router: mgmtRouter}); err != nil {
			return nil, err
		}
		// Management listener shares TLS cert/key with the main listener.
		mgmtCfg := cfg.ManagementListener
		mgmtCfg.TLSCertFile = cfg.Listener.TLSCertFile
		mgmtCfg.TLSKeyFile = cfg.Listener.TLSKeyFile
		mgmt, err := startListener("management", mgmtCfg, mgmtRouter)
		if err != nil {
			return nil, fmt.Errorf("failed to start management server: %w", err)
		}
		log.Info("Management server listening", "addr", mgmt.Addr)
		closeManagement = mgmt.Close
	} else {
		if err := registryroute.MountAll(registryroute.RouteTypeManagement, registryroute.Mount{Router: router}); err != nil {
			return nil, err
		}
	}

	running, err := startListener("main", cfg.Listener, router)
	if err != nil {
		return nil, err
	}

	log.Info("Server listening",
		"port", running.Port,
		"plaintext", cfg.Listener.EnablePlainText,
		"tls", cfg.Listener.EnableTLS,
	)

	routesystem.MarkReady(store)
	return &Server{
		Config:          cfg,
		Store:           store,
		Services:        svcs,
		Router:          router,
		Running:         running,
		closeManagement: closeManagement,
		closeCache:      closeCache,
	}, nil
}
