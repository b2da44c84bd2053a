// Package metrics keeps the planner's Prometheus collectors on a private registry.
// Runs are batch jobs, so the registry is written to a node-exporter text file
// instead of being served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics wraps the registry and the column generation collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Runs             *prometheus.CounterVec   // by outcome
	Iterations       *prometheus.CounterVec   // master solves
	ColumnsGenerated *prometheus.CounterVec   // columns accepted into the pool
	SolveDuration    *prometheus.HistogramVec // by phase: master, pricing
	Objective        *prometheus.GaugeVec
	PoolSize         *prometheus.GaugeVec
}

// NewMetrics creates a registry with Go runtime collectors and the planner's own
func NewMetrics(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{registry: reg}
	constLabels := prometheus.Labels{"service": service}

	m.Runs = m.NewCounterVec(prometheus.CounterOpts{
		Name:        "replenish_runs_total",
		Help:        "Planning runs by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.Iterations = m.NewCounterVec(prometheus.CounterOpts{
		Name:        "replenish_colgen_iterations_total",
		Help:        "Restricted master solves",
		ConstLabels: constLabels,
	}, nil)

	m.ColumnsGenerated = m.NewCounterVec(prometheus.CounterOpts{
		Name:        "replenish_colgen_columns_generated_total",
		Help:        "Columns accepted into the pool, seeds included",
		ConstLabels: constLabels,
	}, []string{"source"})

	m.SolveDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "replenish_colgen_phase_duration_seconds",
		Help:        "Wall time per master solve or pricing round",
		ConstLabels: constLabels,
		Buckets:     prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"phase"})

	m.Objective = m.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "replenish_colgen_objective",
		Help:        "Objective of the latest master solve",
		ConstLabels: constLabels,
	}, nil)

	m.PoolSize = m.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "replenish_colgen_pool_columns",
		Help:        "Columns in the pool",
		ConstLabels: constLabels,
	}, nil)

	return m
}

// NewCounterVec creates and registers a counter
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec creates and registers a gauge
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec creates and registers a histogram
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePhase records how long a phase took
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.SolveDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveIteration records one completed master solve
func (m *Metrics) ObserveIteration(objective float64, poolSize int) {
	if m == nil {
		return
	}
	m.Iterations.WithLabelValues().Inc()
	m.Objective.WithLabelValues().Set(objective)
	m.PoolSize.WithLabelValues().Set(float64(poolSize))
}

// AddColumns counts accepted columns by where they came from
func (m *Metrics) AddColumns(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ColumnsGenerated.WithLabelValues(source).Add(float64(n))
}

// ObserveRun counts a finished run
func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

// WriteToFile writes the registry in text exposition format
func (m *Metrics) WriteToFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
