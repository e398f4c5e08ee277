package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StatusTransitions counts committed status changes per entity.
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charitymatch_status_transitions_total",
			Help: "Committed status transitions by entity and target status",
		},
		[]string{"entity", "status"},
	)

	// MatchesCreated counts matches by origin.
	MatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charitymatch_matches_created_total",
			Help: "Matches created by type",
		},
		[]string{"type"},
	)

	// MatchConflicts counts match attempts rejected because a side was already bound.
	MatchConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "charitymatch_match_conflicts_total",
			Help: "Match attempts rejected with already_matched",
		},
	)

	// NotificationsCreated counts notification records by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charitymatch_notifications_created_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)

	// DispatchFailures counts events whose fan-out failed and was left for the relay.
	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charitymatch_dispatch_failures_total",
			Help: "Notification dispatch failures by stage",
		},
		[]string{"stage"}, // stage: fanout, publish, relay
	)

	// FeedbackSubmitted counts accepted feedback by author role.
	FeedbackSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charitymatch_feedback_submitted_total",
			Help: "Feedback submissions by role",
		},
		[]string{"role"},
	)
)

// RecordTransition increments the transition counter for entity moving to status.
func RecordTransition(entity, status string) {
	StatusTransitions.WithLabelValues(entity, status).Inc()
}

// MetricsHandler exposes the default prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
