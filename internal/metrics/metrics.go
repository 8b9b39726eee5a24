package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrooms_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatrooms_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Directory metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrooms_cache_lookups_total",
			Help: "Room cache lookups by result",
		},
		[]string{"scope", "result"}, // scope: list|room, result: hit|miss|error
	)

	CacheWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrooms_cache_write_failures_total",
			Help: "Cache writes that failed and were skipped",
		},
	)

	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrooms_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	RoomJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrooms_room_joins_total",
			Help: "Join attempts by outcome",
		},
		[]string{"outcome"}, // joined|rejoined|denied
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrooms_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatrooms_store_ping_latency_seconds",
			Help:    "Room store health check latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25},
		},
	)
)
