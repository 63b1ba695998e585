package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wirechat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_rate_limit_hits_total",
			Help: "Requests rejected by the per-user rate limiter",
		},
	)

	// Message lifecycle metrics
	MessagesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_messages_delivered_total",
			Help: "Messages appended to a channel or DM",
		},
		[]string{"container", "source"}, // source: send, share, deferred, standup
	)

	DeferredScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_deferred_scheduled_total",
			Help: "Messages scheduled for later delivery",
		},
	)

	DeferredDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_deferred_dropped_total",
			Help: "Deferred messages dropped because their container disappeared",
		},
	)

	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_message_mutations_total",
			Help: "Applied message mutations",
		},
		[]string{"op"},
	)

	NotificationsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_notifications_pushed_total",
			Help: "Notifications appended to user feeds",
		},
		[]string{"event"},
	)

	StandupsFlushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_standups_flushed_total",
			Help: "Standups closed by their timer",
		},
		[]string{"result"}, // message, empty, orphaned
	)
)
