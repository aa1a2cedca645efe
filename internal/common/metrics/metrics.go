package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of requests issued to the processing service",
		},
		[]string{"operation", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_request_duration_seconds",
			Help: "Duration of processing service requests in seconds",
		},
		[]string{"operation"},
	)

	WorkflowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of page flow transitions",
		},
		[]string{"from", "to"},
	)

	WorkflowValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_validation_failures_total",
			Help: "Total number of pre-network validation failures per step",
		},
		[]string{"step", "field"},
	)

	DownloadsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_triggered_total",
			Help: "Total number of fire-and-forget download triggers",
		},
		[]string{"kind"},
	)
)
