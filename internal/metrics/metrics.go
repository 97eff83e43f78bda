// Package metrics holds the Prometheus collectors exported by the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_attempts_total",
			Help: "LLM call attempts by outcome kind (ok, rate_limit, timeout, connection, server, fatal)",
		},
		[]string{"kind"},
	)

	LLMFailovers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "llm_failover_total",
			Help: "Calls served by the primary provider after the secondary failed",
		},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens consumed by provider and direction",
		},
		[]string{"provider", "direction"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Search provider requests by outcome",
		},
		[]string{"provider", "outcome"},
	)

	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_fetches_total",
			Help: "Page fetches by outcome",
		},
		[]string{"outcome"},
	)

	WaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wave_duration_seconds",
			Help:    "Wall time of each pipeline wave",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"wave"},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Completed pipeline runs by final status",
		},
		[]string{"status"},
	)
)

// Outcome maps a success flag to an outcome label.
func Outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
