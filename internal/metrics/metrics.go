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
	// CacheLookups 统计派生链接缓存的命中与未命中。
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tribuna_link_cache_lookups_total",
			Help: "Derived link cache lookups by backend and result.",
		},
		[]string{"backend", "result"},
	)

	// ThumbnailRenders 统计本地封面生成结果。
	ThumbnailRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tribuna_thumbnail_renders_total",
			Help: "Local PDF cover renders by result.",
		},
		[]string{"result"},
	)

	// EditionOperations 统计后台对期刊的写操作。
	EditionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tribuna_edition_operations_total",
			Help: "Edition write operations by operation and result.",
		},
		[]string{"op", "result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tribuna_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tribuna_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Result labels shared by the counters above.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultOK      = "ok"
	ResultError   = "error"
	ResultInvalid = "invalid"
)

// CacheHit records a cache hit for backend.
func CacheHit(backend string) {
	CacheLookups.WithLabelValues(backend, ResultHit).Inc()
}

// CacheMiss records a cache miss for backend.
func CacheMiss(backend string) {
	CacheLookups.WithLabelValues(backend, ResultMiss).Inc()
}

// Middleware 记录每个请求的次数和耗时，路由使用注册时的模板路径以控制基数。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequests.WithLabelValues(c.Request.Method, route, status).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
