// Package metrics exposes evaluation and interrupt counters for the shell.
package metrics

import (
	"github.com/aretw0/metta/pkg/cancel"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns a private registry so tests and embedders do not touch the
// global one.
type Collector struct {
	registry *prometheus.Registry

	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	interrupts  *prometheus.CounterVec
	abandoned   prometheus.Gauge
	late        prometheus.Counter
}

// NewCollector creates and registers the shell metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metta_evaluations_total",
				Help: "Evaluated input units by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "metta_evaluation_duration_seconds",
			Help:    "Time spent evaluating an input unit.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		interrupts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metta_interrupts_total",
				Help: "Interrupts received, by controller state at arrival.",
			},
			[]string{"state", "action"},
		),
		abandoned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metta_abandoned_workers",
			Help: "Engine workers left running after a cancellation.",
		}),
		late: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "metta_discarded_results_total",
			Help: "Results of abandoned workers that were dropped.",
		}),
	}
	c.registry.MustRegister(
		c.evaluations, c.duration, c.interrupts, c.abandoned, c.late,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveOutcome records one evaluation (runner.WithObserver).
func (c *Collector) ObserveOutcome(out domain.Outcome) {
	c.evaluations.WithLabelValues(string(out.Kind)).Inc()
	if out.Duration > 0 {
		c.duration.Observe(out.Duration.Seconds())
	}
}

// ObserveInterrupt records one interrupt (cancel.WithObserver).
func (c *Collector) ObserveInterrupt(state cancel.State, action cancel.Action) {
	c.interrupts.WithLabelValues(state.String(), action.String()).Inc()
}

// WorkerAbandoned implements engine.Observer.
func (c *Collector) WorkerAbandoned() {
	c.abandoned.Inc()
}

// WorkerReclaimed implements engine.Observer.
func (c *Collector) WorkerReclaimed() {
	c.abandoned.Dec()
	c.late.Inc()
}
