package security

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// StoreLatency can be used by store implementations to record operation latency.
	StoreLatency *prometheus.HistogramVec

	// CacheHitsTotal and CacheMissesTotal count catalog cache lookups per provider.
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// CatalogRequestsTotal counts outbound catalog calls by provider and outcome.
	CatalogRequestsTotal *prometheus.CounterVec

	// ImportedItemsTotal counts media items written by the legacy importer.
	ImportedItemsTotal *prometheus.CounterVec

	// DBPoolOpenConnections tracks the number of currently open database connections.
	DBPoolOpenConnections prometheus.Gauge
)

var validLabelKey = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseMetricsLabels parses a comma-separated list of key=value pairs into
// Prometheus labels. Values support ${VAR} / $VAR environment variable expansion.
// Label values may not contain commas. Returns nil for an empty string.
func ParseMetricsLabels(s string) (prometheus.Labels, error) {
	s = os.Expand(s, os.Getenv)
	if s == "" {
		return nil, nil
	}
	labels := prometheus.Labels{}
	for _, pair := range strings.Split(s, ",") {
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid label %q: expected key=value", pair)
		}
		k, v := pair[:idx], pair[idx+1:]
		if !validLabelKey.MatchString(k) {
			return nil, fmt.Errorf("invalid label key %q: must match [a-zA-Z_][a-zA-Z0-9_]*", k)
		}
		labels[k] = v
	}
	return labels, nil
}

var initMetricsOnce sync.Once

// InitMetrics registers all Prometheus metrics with the given constant labels.
// Safe to call multiple times; only the first call registers.
func InitMetrics(constLabels prometheus.Labels) {
	initMetricsOnce.Do(func() {
		initMetricsInner(constLabels)
	})
}

func initMetricsInner(constLabels prometheus.Labels) {
	reg := prometheus.WrapRegistererWith(constLabels, prometheus.DefaultRegisterer)
	f := promauto.With(reg)

	httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_tracker_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_tracker_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StoreLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_tracker_store_latency_seconds",
			Help:    "Store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "operation"},
	)

	CacheHitsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "media_tracker_catalog_cache_hits_total",
		Help: "Total catalog cache hits",
	}, []string{"provider"})

	CacheMissesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "media_tracker_catalog_cache_misses_total",
		Help: "Total catalog cache misses",
	}, []string{"provider"})

	CatalogRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "media_tracker_catalog_requests_total",
		Help: "Total outbound catalog requests",
	}, []string{"provider", "outcome"})

	ImportedItemsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "media_tracker_imported_items_total",
		Help: "Total media items created by the legacy importer",
	}, []string{"media_type"})

	DBPoolOpenConnections = f.NewGauge(prometheus.GaugeOpts{
		Name: "media_tracker_db_pool_open_connections",
		Help: "Number of open database connections",
	})
}

// MetricsMiddleware records HTTP request metrics for Prometheus.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpRequestsTotal == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())
	}
}

// Counter helpers tolerate metrics that were never initialized (tests, CLI commands).

func incVec(vec *prometheus.CounterVec, labels ...string) {
	if vec != nil {
		vec.WithLabelValues(labels...).Inc()
	}
}

// RecordCacheLookup counts a catalog cache hit or miss.
func RecordCacheLookup(provider string, hit bool) {
	if hit {
		incVec(CacheHitsTotal, provider)
		return
	}
	incVec(CacheMissesTotal, provider)
}

// RecordCatalogRequest counts an outbound catalog call.
func RecordCatalogRequest(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	incVec(CatalogRequestsTotal, provider, outcome)
}

// RecordImportedItem counts a media item created by the legacy importer.
func RecordImportedItem(mediaType string) {
	incVec(ImportedItemsTotal, mediaType)
}
