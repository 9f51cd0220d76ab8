// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Selection metrics
var (
	// SelectionsTotal counts committed selections by method.
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinner_selections_total",
			Help: "Committed selections by selection method",
		},
		[]string{"method"},
	)

	// ManualDrawsTotal counts manual spins that returned the eligible set.
	ManualDrawsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spinner_manual_draws_total",
			Help: "Manual spins that returned the eligible set without recording",
		},
	)

	// SelectionErrorsTotal counts failed select/record calls by error class.
	SelectionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinner_selection_errors_total",
			Help: "Failed selection requests by reason",
		},
		[]string{"reason"},
	)

	// HistoryClearedRecordsTotal counts selection records removed by clear-history.
	HistoryClearedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spinner_history_cleared_records_total",
			Help: "Selection records deleted by clear-history",
		},
	)

	// SpinDuration observes the client-reported spin duration.
	SpinDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spinner_spin_duration_ms",
			Help:    "Client-reported spin duration in milliseconds",
			Buckets: []float64{250, 500, 1000, 2000, 3000, 5000, 10000, 30000, 60000},
		},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts API requests by route pattern and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinner_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	// HTTPRequestDuration tracks API latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spinner_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"route"},
	)
)

// Export metrics
var (
	// ExportRunsTotal counts history export runs by outcome (ok/error).
	ExportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinner_export_runs_total",
			Help: "History export runs by status",
		},
		[]string{"status"},
	)

	// ExportedRecordsTotal counts selection records written by the exporter.
	ExportedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spinner_exported_records_total",
			Help: "Selection records written to export destinations",
		},
	)
)

// Error reasons used with SelectionErrorsTotal.
const (
	ReasonValidation    = "validation"
	ReasonNotFound      = "not_found"
	ReasonNoEligible    = "no_eligible"
	ReasonInvalidMethod = "invalid_method"
	ReasonTransaction   = "transaction_failed"
	ReasonInternal      = "internal"
)
