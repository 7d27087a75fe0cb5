// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeError        = "error"
	OutcomeInvalidImage = "invalid_image"
)

var (
	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinstric_analysis_requests_total",
			Help: "Total number of Phase Two analysis requests by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skinstric_analysis_duration_seconds",
			Help:    "Duration of Phase Two analysis calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	PageViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinstric_page_views_total",
			Help: "Total number of rendered onboarding pages",
		},
		[]string{"page"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinstric_validation_failures_total",
			Help: "Total number of rejected form inputs",
		},
		[]string{"field"},
	)
)

// ObserveAnalysis records one analysis call.
func ObserveAnalysis(outcome string, started time.Time) {
	AnalysisRequests.WithLabelValues(outcome).Inc()
	AnalysisDuration.Observe(time.Since(started).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
