package api

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the handlers
type Metrics struct {
	ExtractionRuns   *prometheus.CounterVec // labels: status
	CandidatesQueued *prometheus.CounterVec // labels: verified
	EventsSwept      *prometheus.CounterVec // labels: trigger
}
