package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Bridge request metrics
	// ============================================
	BridgeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_bridge_requests_total",
			Help: "Total number of bridge requests by shape and outcome",
		},
		[]string{"shape", "status"},
	)

	BridgeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxy_bridge_request_duration_seconds",
			Help:    "Bridge request dispatch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"shape"},
	)

	// ============================================
	// Fee accounting metrics
	// ============================================
	FeeCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_fee_credits_total",
			Help: "Total number of ledger credit operations by party and fee kind",
		},
		[]string{"party", "kind"},
	)

	FeeCollectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_fee_collections_total",
			Help: "Total number of fee pool withdrawals by party",
		},
		[]string{"party"},
	)

	// ============================================
	// Collaborator metrics
	// ============================================
	CollaboratorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_collaborator_failures_total",
			Help: "Total number of failed external collaborator calls",
		},
		[]string{"collaborator"},
	)

	CollaboratorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxy_collaborator_call_duration_seconds",
			Help:    "External collaborator call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collaborator"},
	)

	// ============================================
	// Event publishing metrics
	// ============================================
	EventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proxy_request_sent_events_total",
		Help: "Total number of RequestSent events published",
	})

	EventPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proxy_request_sent_publish_failures_total",
		Help: "Total number of RequestSent publish failures after commit",
	})
)
