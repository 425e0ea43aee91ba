package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(runsTotal, activeRuns) }

var runsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "benchmark_runs_total",
		Help: "Benchmark runs reaching a terminal status, labeled by status.",
	},
	[]string{"status"},
)

var activeRuns = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "benchmark_active_runs",
		Help: "Benchmark runs currently executing.",
	},
)

// IncRunFinished records a run reaching a terminal status.
func IncRunFinished(status string) {
	runsTotal.WithLabelValues(strings.ToLower(status)).Inc()
}

// RunStarted increments the active-run gauge.
func RunStarted() { activeRuns.Inc() }

// RunEnded decrements the active-run gauge.
func RunEnded() { activeRuns.Dec() }
