// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduportal_document_writes_total",
			Help: "Total number of document writes by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GradesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduportal_grades_submitted_total",
			Help: "Total number of grades submitted",
		},
		[]string{"course"},
	)

	GradePercent = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eduportal_grade_percent",
			Help:    "Distribution of submitted grades as a percentage of the max grade",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"course"},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduportal_logins_total",
			Help: "Login attempts by role and outcome",
		},
		[]string{"role", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
