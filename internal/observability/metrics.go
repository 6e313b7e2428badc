package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	commentsCreatedTotal *prometheus.CounterVec
	commentsDeletedTotal *prometheus.CounterVec
	rateLimitedTotal     prometheus.Counter
	listCacheTotal       *prometheus.CounterVec
	streamClients        prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the comments API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "comments_http_requests_total",
			Help: "Total number of comment API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "comments_http_latency_seconds",
			Help:    "Latency distribution for comment API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		commentsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "comments_created_total",
			Help: "Comments created, split by top-level comments and replies.",
		}, []string{"kind"})

		commentsDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "comments_deleted_total",
			Help: "Comments deleted, split by whether the owner or an admin deleted them.",
		}, []string{"by"})

		rateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "comments_rate_limited_total",
			Help: "Comment writes rejected by the per-identity rate limiter.",
		})

		listCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "comments_list_cache_total",
			Help: "Comment listing cache lookups by result.",
		}, []string{"result"})

		streamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "comments_stream_clients",
			Help: "Websocket clients currently subscribed to comment events.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			commentsCreatedTotal,
			commentsDeletedTotal,
			rateLimitedTotal,
			listCacheTotal,
			streamClients,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// CommentsCreated exposes the created comments counter.
func CommentsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return commentsCreatedTotal
}

// CommentsDeleted exposes the deleted comments counter.
func CommentsDeleted() *prometheus.CounterVec {
	RegisterMetrics()
	return commentsDeletedTotal
}

// RateLimited exposes the rate-limited writes counter.
func RateLimited() prometheus.Counter {
	RegisterMetrics()
	return rateLimitedTotal
}

// ListCache exposes the listing cache counter.
func ListCache() *prometheus.CounterVec {
	RegisterMetrics()
	return listCacheTotal
}

// StreamClients exposes the websocket subscriber gauge.
func StreamClients() prometheus.Gauge {
	RegisterMetrics()
	return streamClients
}
