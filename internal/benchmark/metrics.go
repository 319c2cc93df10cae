package benchmark

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/tempo/internal/timing"
)

var (
	resultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempo_benchmark_results_total",
			Help: "Total number of benchmark executions by workload and outcome.",
		},
		[]string{"workload", "outcome"},
	)

	workloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tempo_benchmark_duration_seconds",
			Help:    "Workload-reported duration of successful benchmark executions, in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"workload"},
	)

	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempo_benchmark_in_flight",
			Help: "Number of benchmark executions currently in progress.",
		},
	)

	detachedWorkloads = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tempo_benchmark_detached_workloads",
			Help: "Workloads still running after their executor stopped waiting for them.",
		},
		func() float64 { return float64(timing.Detached()) },
	)
)

func init() {
	prometheus.MustRegister(resultsTotal)
	prometheus.MustRegister(workloadDuration)
	prometheus.MustRegister(inFlight)
	prometheus.MustRegister(detachedWorkloads)
}

// observe records the outcome of one execution.
func observe(workload string, res Result) {
	resultsTotal.WithLabelValues(workload, string(res.Outcome())).Inc()
	if s, ok := res.(Success); ok {
		workloadDuration.WithLabelValues(workload).Observe(s.Duration.Seconds())
	}
}
