// Package metrics exposes Prometheus instrumentation for the coordination
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CasesCreated counts cases opened from reports, by urgency.
	CasesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strayaid_cases_created_total",
		Help: "Cases created from submitted reports",
	}, []string{"urgency"})

	// CaseTransitions counts state-machine edges taken.
	CaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strayaid_case_transitions_total",
		Help: "Case state transitions by edge",
	}, []string{"from", "to"})

	// AssignmentOutcomes counts how proposals ended.
	AssignmentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strayaid_assignment_outcomes_total",
		Help: "Terminal assignment states (active, declined, expired, revoked, completed)",
	}, []string{"outcome"})

	// UnassignableCases tracks cases currently parked for escalation.
	UnassignableCases = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "strayaid_unassignable_cases",
		Help: "Cases in triaged state with no eligible responder",
	})

	// MessagesAppended counts thread appends by message type.
	MessagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strayaid_messages_appended_total",
		Help: "Messages appended to conversation threads",
	}, []string{"type"})

	// NotificationDeliveries counts sink deliveries by outcome.
	NotificationDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strayaid_notification_deliveries_total",
		Help: "Notification sink delivery attempts",
	}, []string{"sink", "outcome"})

	// AcceptLatency observes time from proposal to acceptance.
	AcceptLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strayaid_accept_latency_seconds",
		Help:    "Time from assignment proposal to responder acceptance",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
	})

	// HTTPRequests counts API requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strayaid_http_requests_total",
		Help: "HTTP requests by method, path, and status",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes API request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "strayaid_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)
