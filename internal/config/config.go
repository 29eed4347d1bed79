package config

import (
	"context"
	"strings"
	"time"
)

// ListenerConfig holds the network/TLS settings for a single listener (main or management).
type ListenerConfig struct {
	Port              int
	EnablePlainText   bool
	EnableTLS         bool
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

const (
	ModeProd    = "prod"
	ModeTesting = "testing"
)

// Config holds all configuration for the media tracker.
type Config struct {
	// Mode controls security behavior: "prod" (default) or "testing".
	// In testing mode the X-User-ID header is trusted as the caller identity.
	Mode string

	// Datastore backend type: "mongo", "postgres" or "memory".
	DatastoreType string
	DBURL         string
	DBName        string

	// Run datastore migrations on startup.
	DatastoreMigrateAtStart bool

	// DB pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Catalog cache backend type: "none", "local", "lru", "redis" or "infinispan".
	CacheType string
	RedisURL  string

	// Infinispan RESP endpoint, used when CacheType is "infinispan".
	InfinispanHost           string
	InfinispanUsername       string
	InfinispanPassword       string
	InfinispanStartupTimeout time.Duration
	// CatalogCacheTTL bounds how long catalog lookups are reused.
	CatalogCacheTTL time.Duration
	// CacheLocalMaxCost is the byte budget of the in-process cache.
	CacheLocalMaxCost int64
	// CacheLRUSize is the entry budget of the "lru" cache.
	CacheLRUSize int

	// TMDB catalog provider (movies and tv shows). Disabled without a token.
	TMDBToken        string
	TMDBBaseURL      string
	TMDBImageBaseURL string
	TMDBLanguage     string
	// TMDBRequestsPerSecond throttles outgoing catalog requests. Zero disables throttling.
	TMDBRequestsPerSecond float64
	CatalogTimeout        time.Duration

	// Legacy import defaults.
	ImportDefaultPlatformName string
	ImportDefaultPlatformIcon string

	// OIDC
	OIDCIssuer       string
	OIDCDiscoveryURL string // Internal URL for OIDC discovery (when issuer URL is not reachable)
	OIDCClientID     string

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	MetricsLabels string

	// Server
	Listener           ListenerConfig
	ManagementListener ListenerConfig
	// ManagementListenerEnabled is true when --management-port was explicitly provided.
	// When false, management endpoints are served on the main port.
	ManagementListenerEnabled bool
	// ManagementAccessLog enables HTTP access logging for management endpoints (/health, /ready, /metrics).
	ManagementAccessLog bool
	CORSEnabled         bool
	CORSOrigins         string

	// APIKeys maps API key values to user IDs (MEDIA_TRACKER_API_KEYS_<USER_ID>=<key>).
	APIKeys map[string]string

	// Body size limits (bytes). Legacy exports get their own, larger limit.
	MaxBodySize       int64
	ImportMaxBodySize int64

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                      ModeProd,
		DatastoreType:             "mongo",
		DBName:                    "media_tracker",
		DatastoreMigrateAtStart:   true,
		DBMaxOpenConns:            25,
		DBMaxIdleConns:            5,
		CacheType:                 "local",
		CatalogCacheTTL:           6 * time.Hour,
		CacheLocalMaxCost:         64 * 1024 * 1024,
		CacheLRUSize:              10000,
		InfinispanStartupTimeout:  30 * time.Second,
		TMDBBaseURL:               "https://api.themoviedb.org/3",
		TMDBImageBaseURL:          "https://image.tmdb.org/t/p/w500",
		TMDBLanguage:              "en-US",
		TMDBRequestsPerSecond:     20,
		CatalogTimeout:            10 * time.Second,
		ImportDefaultPlatformName: "Owned",
		MetricsLabels:             "service=media-tracker",
		Listener: ListenerConfig{
			Port:              8080,
			EnablePlainText:   true,
			EnableTLS:         true,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ManagementListener: ListenerConfig{
			EnablePlainText: true,
			EnableTLS:       true,
		},
		MaxBodySize:       20 * 1024 * 1024,
		ImportMaxBodySize: 200 * 1024 * 1024,
		DrainTimeout:      30,
	}
}

// CatalogEnabled reports whether an external catalog provider is configured.
func (c *Config) CatalogEnabled() bool {
	return c != nil && strings.TrimSpace(c.TMDBToken) != ""
}
