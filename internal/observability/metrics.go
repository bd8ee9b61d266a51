package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	taskStartsTotal     *prometheus.CounterVec
	submissionsTotal    *prometheus.CounterVec
	answersFlaggedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for API and grading
// observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skola_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		taskStartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_task_starts_total",
			Help: "Total number of task attempts started, by task type.",
		}, []string{"task_type"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_submissions_completed_total",
			Help: "Total number of completed submissions, by final status.",
		}, []string{"status"})

		answersFlaggedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_answers_flagged_total",
			Help: "Total number of answers routed to teacher review, by question type.",
		}, []string{"question_type"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			taskStartsTotal,
			submissionsTotal,
			answersFlaggedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// TaskStarts exposes the counter for started task attempts.
func TaskStarts() *prometheus.CounterVec {
	RegisterMetrics()
	return taskStartsTotal
}

// SubmissionsCompleted exposes the counter for completed submissions.
func SubmissionsCompleted() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// AnswersFlagged exposes the counter for answers flagged for review.
func AnswersFlagged() *prometheus.CounterVec {
	RegisterMetrics()
	return answersFlaggedTotal
}
