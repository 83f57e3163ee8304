// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pm_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	authorizationDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_authorization_denials_total",
			Help: "Authorization denials by reason",
		},
		[]string{"reason"},
	)
	cascadeDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_cascade_deletes_total",
			Help: "Cascade deletions by entity and outcome",
		},
		[]string{"entity", "success"},
	)
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_auth_attempts_total",
			Help: "Authentication attempts by method and outcome",
		},
		[]string{"method", "success"},
	)
)

// ObserveRequest records one handled HTTP request.
func ObserveRequest(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

func RecordDenial(reason string) {
	authorizationDenials.WithLabelValues(reason).Inc()
}

func RecordCascade(entity string, success bool) {
	cascadeDeletes.WithLabelValues(entity, strconv.FormatBool(success)).Inc()
}

func RecordAuthAttempt(method string, success bool) {
	authAttempts.WithLabelValues(method, strconv.FormatBool(success)).Inc()
}
