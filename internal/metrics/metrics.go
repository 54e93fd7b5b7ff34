package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aerolease",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	calendarClicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aerolease",
			Name:      "calendar_clicks_total",
			Help:      "Count of calendar day clicks by outcome.",
		},
		[]string{"outcome"},
	)

	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aerolease",
			Name:      "validation_failures_total",
			Help:      "Count of rejected submissions by failure code.",
		},
		[]string{"code"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aerolease",
			Name:      "submissions_total",
			Help:      "Count of booking submissions by relay outcome and lease type.",
		},
		[]string{"outcome", "lease_type"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aerolease",
			Name:      "manager_notifications_total",
			Help:      "Count of manager notifications by status.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, calendarClicks, validationFailures, submissions, notifications)
	})
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncClick(outcome string) {
	calendarClicks.WithLabelValues(outcome).Inc()
}

func IncValidationFailure(code string) {
	validationFailures.WithLabelValues(code).Inc()
}

func IncSubmission(outcome, leaseType string) {
	submissions.WithLabelValues(outcome, leaseType).Inc()
}

func IncNotification(status string) {
	notifications.WithLabelValues(status).Inc()
}
