// Package metrics records sweep throughput in a Prometheus registry that
// can be written out in node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stocksim"

// SweepMetrics implements calculation.RunObserver.
type SweepMetrics struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	sweepRuns     *prometheus.GaugeVec
	sweepDuration *prometheus.GaugeVec
}

// NewSweepMetrics creates the collectors on a private registry.
func NewSweepMetrics() *SweepMetrics {
	m := &SweepMetrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Simulation runs by sweep kind and result.",
		}, []string{"kind", "result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a single simulation run.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"kind"}),
		sweepRuns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_runs",
			Help:      "Runs in the most recent sweep.",
		}, []string{"kind"}),
		sweepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of the most recent sweep.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.runs, m.runDuration, m.sweepRuns, m.sweepDuration)
	return m
}

// ObserveRun records one finished run.
func (m *SweepMetrics) ObserveRun(kind string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runs.WithLabelValues(kind, result).Inc()
	m.runDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveSweep records a finished sweep.
func (m *SweepMetrics) ObserveSweep(kind string, runs int, elapsed time.Duration) {
	m.sweepRuns.WithLabelValues(kind).Set(float64(runs))
	m.sweepDuration.WithLabelValues(kind).Set(elapsed.Seconds())
}

// WriteTextfile writes all metrics to path atomically.
func (m *SweepMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
