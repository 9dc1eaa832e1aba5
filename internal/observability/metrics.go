package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "searches_total", Help: "Total nearby searches"})
	GeoErrorsTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "geo_errors_total", Help: "Total geo index query failures"})
	RequestsSubmitted  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "match_requests_submitted_total", Help: "Total match requests submitted"})
	RequestsAccepted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "match_requests_accepted_total", Help: "Total match requests accepted"})
	RequestsRejected   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "match_requests_rejected_total", Help: "Total match requests rejected"})
	ChatsProvisioned   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "chats_provisioned_total", Help: "Total chats created on acceptance"})
	TripsExpired       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "trips_expired_total", Help: "Total trips marked expired by the sweeper"})
	NoticesDelivered   = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "notices_delivered_total", Help: "Notices delivered by channel"}, []string{"channel"})
	NoticesDropped     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "notices_dropped_total", Help: "Notices dropped because the dispatch queue was full"})
	NoticeSendFailures = promauto.NewCounter(prometheus.CounterOpts{Namespace: "trip_sharing", Name: "notice_send_failures_total", Help: "Notice deliveries that failed on every channel"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip_sharing", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip_sharing",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
