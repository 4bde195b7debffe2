// Package observability registers the Prometheus metrics for the server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	casesIngestedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wildwarden",
		Subsystem: "cases",
		Name:      "ingested_total",
		Help:      "Telemetry submissions accepted into the case store.",
	})
	pendingPurgedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wildwarden",
		Subsystem: "cases",
		Name:      "pending_purged_total",
		Help:      "Stale pending cases swept by the last-submission-wins policy.",
	})
	caseResolutionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wildwarden",
		Subsystem: "cases",
		Name:      "resolutions_total",
		Help:      "Dispatcher accept/reject decisions.",
	}, []string{"resolution"})
	buzzerActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wildwarden",
		Subsystem: "buzzer",
		Name:      "active",
		Help:      "1 when at least one case awaits dispatcher action.",
	})
	pendingCasesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wildwarden",
		Subsystem: "buzzer",
		Name:      "pending_cases",
		Help:      "Pending cases observed at the last buzzer evaluation.",
	})

	// HTTPRequests counts requests by method, route template and status code.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wildwarden",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "path", "status"})
	// HTTPRequestDuration observes request latency by method and route template.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wildwarden",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

func init() {
	prometheus.MustRegister(
		casesIngestedCounter,
		pendingPurgedCounter,
		caseResolutionsCounter,
		buzzerActiveGauge,
		pendingCasesGauge,
		HTTPRequests,
		HTTPRequestDuration,
	)
}

// RecordCaseIngested counts one ingest and the pending cases it displaced.
func RecordCaseIngested(purged int64) {
	casesIngestedCounter.Inc()
	if purged > 0 {
		pendingPurgedCounter.Add(float64(purged))
	}
}

// RecordCaseResolved counts one accept or reject decision.
func RecordCaseResolved(resolution string) {
	caseResolutionsCounter.WithLabelValues(resolution).Inc()
}

// RecordBuzzerState updates the buzzer gauges after an evaluation.
func RecordBuzzerState(active bool, pending int) {
	if active {
		buzzerActiveGauge.Set(1)
	} else {
		buzzerActiveGauge.Set(0)
	}
	pendingCasesGauge.Set(float64(pending))
}
