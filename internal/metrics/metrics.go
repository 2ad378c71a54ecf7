package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mylibrary_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "path", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mylibrary_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	CatalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mylibrary_catalog_requests_total",
		Help: "Requests sent to external book catalogs",
	}, []string{"provider", "outcome"})

	CatalogCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mylibrary_catalog_cache_total",
		Help: "Catalog search cache lookups",
	}, []string{"result"})

	AIGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mylibrary_ai_generations_total",
		Help: "AI text generations by kind and outcome",
	}, []string{"kind", "outcome"})

	EnrichmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mylibrary_enrichments_total",
		Help: "Book metadata enrichment attempts",
	}, []string{"source", "outcome"})
)

// Middleware records request counts and latency. The route template is used as
// the path label so ids do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HttpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HttpRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
