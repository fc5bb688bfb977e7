// Package metrics holds the process-wide Prometheus collectors, exposed
// on /metrics by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionsTotal counts verification sessions by method and terminal
// outcome ("succeeded" or the failure kind).
var SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusattend_verification_sessions_total",
	Help: "Verification sessions reaching a terminal state, by method and outcome.",
}, []string{"method", "outcome"})

// MarksTotal counts attendance records accepted by the API, by method.
var MarksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusattend_attendance_marks_total",
	Help: "Attendance records accepted, by verification method.",
}, []string{"method"})
