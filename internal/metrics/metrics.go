package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripbot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripbot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	JoinRequestsRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripbot_join_requests_relayed_total",
			Help: "Join requests relayed to trip admins",
		},
	)

	DuplicateRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripbot_duplicate_requests_total",
			Help: "Join requests rejected as duplicates",
		},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripbot_decisions_total",
			Help: "Resolved join requests",
		},
		[]string{"outcome"}, // "accepted" or "rejected"
	)

	StaleCallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripbot_stale_callbacks_total",
			Help: "Button presses with no matching pending request",
		},
	)

	MalformedTokens = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripbot_malformed_tokens_total",
			Help: "Callback payloads that failed to decode",
		},
	)

	ExpiredPending = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripbot_expired_pending_total",
			Help: "Pending join requests removed by the expiry sweep",
		},
	)

	DuplicateUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripbot_duplicate_updates_total",
			Help: "Redelivered Telegram updates dropped by dedup",
		},
	)

	// Outbound delivery
	OutboundFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripbot_outbound_failures_total",
			Help: "Failed best-effort outbound calls",
		},
		[]string{"target"}, // "telegram" or "backend"
	)

	// Rate limiting
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripbot_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)
