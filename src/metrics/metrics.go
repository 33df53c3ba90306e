package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_created_total",
			Help: "Total number of requests raised, by family",
		},
		[]string{"family"},
	)

	RequestsRefused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_rejected_total",
			Help: "Total number of request creations refused, by family and reason",
		},
		[]string{"family", "reason"},
	)

	RequestsResponded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_responded_total",
			Help: "Total number of requests answered, by family and decision",
		},
		[]string{"family", "decision"},
	)

	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Push delivery attempts per device, by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
)

const (
	PushDelivered = "delivered"
	PushOffline   = "offline"
	PushFailed    = "failed"
	PushSkipped   = "skipped"
)
