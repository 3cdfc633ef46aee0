package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_requests_total",
		Help: "Calls made to the payment provider, by operation and outcome",
	}, []string{"operation", "outcome"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Latency of payment provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reconciliations_total",
		Help: "Booking status updates, by target status",
	}, []string{"status"})

	outboxSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_outbox_sent_total",
		Help: "Confirmation emails delivered to the provider",
	})

	outboxFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_outbox_failed_total",
		Help: "Confirmation email attempts that failed",
	})
)
