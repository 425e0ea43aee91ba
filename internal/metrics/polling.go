package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(pollsTotal, transientPollErrors, submitLatency, queryElapsed, queryOutcomes)
}

var pollsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coordinator_polls_total",
		Help: "Status polls issued against the coordinator, labeled by reported state.",
	},
	[]string{"state"},
)

var transientPollErrors = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "coordinator_transient_poll_errors_total",
		Help: "Polls that failed with a transport or decode error and were retried.",
	},
)

var submitLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "coordinator_submit_latency_ms",
		Help:    "Statement submission latency distribution in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	},
)

var queryElapsed = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "coordinator_query_elapsed_ms",
		Help:    "Client-observed elapsed time of finished queries in milliseconds.",
		Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 300000},
	},
)

var queryOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coordinator_query_outcomes_total",
		Help: "Terminal query outcomes, labeled by outcome.",
	},
	[]string{"outcome"},
)

// IncPoll records one successful status poll and the state it reported.
func IncPoll(state string) {
	if state == "" {
		state = "unknown"
	}
	pollsTotal.WithLabelValues(strings.ToLower(state)).Inc()
}

// IncTransientPollError records a poll absorbed as transient.
func IncTransientPollError() {
	transientPollErrors.Inc()
}

// IncQueryOutcome records one terminal query outcome.
func IncQueryOutcome(outcome string) {
	queryOutcomes.WithLabelValues(strings.ToLower(outcome)).Inc()
}

// ObserveSubmitLatency records the latency of one statement submission.
func ObserveSubmitLatency(d time.Duration) {
	submitLatency.Observe(float64(d.Milliseconds()))
}

// ObserveQueryElapsed records the client-observed elapsed time of a finished query.
func ObserveQueryElapsed(d time.Duration) {
	queryElapsed.Observe(float64(d.Milliseconds()))
}
