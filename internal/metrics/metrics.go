// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_exceeded_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	DonationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donations_submitted_total",
			Help: "Donations stored, by payment method and initial status",
		},
		[]string{"payment_method", "status"},
	)

	CardPayments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_payments_total",
			Help: "Card charges by gateway outcome",
		},
		[]string{"result"},
	)
)

// Card charge outcomes.
const (
	ResultApproved = "approved"
	ResultDeclined = "declined"
	ResultError    = "error"
)
