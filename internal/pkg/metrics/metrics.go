// Package metrics exposes the Prometheus collectors for the attendance
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsStarted counts sessions created via StartSession.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sessions_started_total",
		Help: "Number of attendance sessions started.",
	})

	// SessionTransitions counts state machine transitions by target state.
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_session_transitions_total",
		Help: "Number of session state transitions applied.",
	}, []string{"to"})

	// CheckIns counts check-in attempts by outcome.
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_checkins_total",
		Help: "Number of check-in attempts by outcome.",
	}, []string{"outcome"})

	// CheckInDistance observes the computed distance of accepted check-ins.
	CheckInDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rollcall_checkin_distance_meters",
		Help:    "Distance between student and session location for accepted check-ins.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500},
	})
)

// Check-in outcome labels.
const (
	OutcomeAccepted         = "accepted"
	OutcomeSessionNotFound  = "session_not_found"
	OutcomeSessionNotActive = "session_not_active"
	OutcomeNotEnrolled      = "not_enrolled"
	OutcomeAlreadyCheckedIn = "already_checked_in"
	OutcomeOutOfRange       = "out_of_range"
	OutcomeCodeRejected     = "code_rejected"
	OutcomeError            = "error"
)
