// Package metrics 定义 Prometheus 指标：列表缓存、热门榜、查询耗时、HTTP 请求与缓存熔断。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 列表缓存
	ListCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_list_cache_requests_total",
			Help: "Product list cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	ListCacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_list_cache_write_errors_total",
			Help: "Product list cache writes that failed and were ignored",
		},
	)

	ListInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_list_invalidations_total",
			Help: "Listing invalidation runs by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	ListInvalidatedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_list_invalidated_keys_total",
			Help: "Product list cache keys deleted by invalidation",
		},
	)

	// 热门榜
	TrendingViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_trending_views_total",
			Help: "Trending view increments by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	// 查询
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_catalog_query_duration_seconds",
			Help:    "Keyset page query latency by sort mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sort"},
	)

	EnrichDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "market_enrich_duration_seconds",
			Help:    "Latency of the batched tag/like enrichment",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 缓存熔断器状态：0 closed, 1 half-open, 2 open
	CacheBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "market_cache_breaker_state",
			Help: "Cache circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	ViewsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_views_rate_limited_total",
			Help: "View reports rejected by the rate limiter",
		},
	)
)

// RecordListCache 记录一次列表缓存查询结果
func RecordListCache(result string) {
	ListCacheRequests.WithLabelValues(result).Inc()
}

// RecordInvalidation 记录一次失效操作
func RecordInvalidation(deleted int, err error) {
	if err != nil {
		ListInvalidations.WithLabelValues("error").Inc()
	} else {
		ListInvalidations.WithLabelValues("ok").Inc()
	}
	ListInvalidatedKeys.Add(float64(deleted))
}

// RecordTrendingView 记录一次浏览计数
func RecordTrendingView(err error) {
	if err != nil {
		TrendingViews.WithLabelValues("error").Inc()
		return
	}
	TrendingViews.WithLabelValues("ok").Inc()
}

// ObserveCatalogQuery 记录分页查询耗时
func ObserveCatalogQuery(sort string, start time.Time) {
	CatalogQueryDuration.WithLabelValues(sort).Observe(time.Since(start).Seconds())
}

// ObserveHTTP 记录 HTTP 请求
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
