// Package metrics records phase execution metrics for one invocation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder counts node executions per phase. A nil *Recorder records
// nothing.
type Recorder struct {
	registry *prometheus.Registry
	nodes    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	packages prometheus.Gauge
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foundry_phase_nodes_total",
				Help: "Number of node phase executions by phase and result.",
			},
			[]string{"phase", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foundry_phase_duration_seconds",
				Help:    "Time taken by a node phase execution.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		packages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "foundry_packages",
				Help: "Number of merged packages of the last aggregated graph.",
			},
		),
	}
	r.registry.MustRegister(r.nodes, r.duration, r.packages)
	return r
}

// ObserveNode records one node execution.
func (r *Recorder) ObserveNode(phase string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.nodes.WithLabelValues(phase, result).Inc()
	r.duration.WithLabelValues(phase).Observe(d.Seconds())
}

// SetPackages records the size of the package set.
func (r *Recorder) SetPackages(n int) {
	if r == nil {
		return
	}
	r.packages.Set(float64(n))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
