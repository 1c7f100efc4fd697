package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	StoriesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_published_total",
			Help: "Total number of story segments published",
		},
		[]string{"type"},
	)

	StoriesExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stories_expired_total",
			Help: "Total number of story segments expired by worker",
		},
	)

	StoriesArchivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stories_archived_total",
			Help: "Total number of expired story segments moved to an archive",
		},
	)

	SegmentsPlayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segments_played_total",
			Help: "Total number of segments started in viewer sessions",
		},
		[]string{"type"},
	)

	AdImpressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ad_impressions_total",
			Help: "Total number of sponsored segments shown",
		},
		[]string{"advertiser"},
	)

	ViewerSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewer_sessions_active",
			Help: "Number of open viewer sessions",
		},
	)

	ViewerSessionsReapedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewer_sessions_reaped_total",
			Help: "Total number of idle or finished viewer sessions removed",
		},
	)

	CommentsPostedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comments_posted_total",
			Help: "Total number of comments posted",
		},
		[]string{"content_type"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)

	WorkerLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_latency_seconds",
			Help:    "Worker job execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)
