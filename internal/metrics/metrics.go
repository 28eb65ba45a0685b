// Package metrics exposes Prometheus collectors for experiment runs.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/gridhmm/internal/grid"
	"github.com/banshee-data/gridhmm/internal/hmm"
)

// Collectors groups the run metrics on a private registry so tests and
// multiple servers never collide on the default one. A nil *Collectors is
// valid and records nothing.
type Collectors struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	inference *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	accuracy  *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridhmm_runs_total",
				Help: "Experiment runs by outcome.",
			},
			[]string{"outcome"},
		),
		inference: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridhmm_inference_seconds",
				Help:    "Time spent in each inference algorithm.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
			},
			[]string{"algorithm"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridhmm_failures_total",
				Help: "Run failures by error class.",
			},
			[]string{"reason"},
		),
		accuracy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridhmm_last_accuracy_ratio",
				Help: "Fraction of steps where the algorithm's best state was the true state, for the latest run.",
			},
			[]string{"algorithm"},
		),
	}
	c.registry.MustRegister(c.runs, c.inference, c.failures, c.accuracy)
	return c
}

// Registry returns the underlying registry.
func (c *Collectors) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveInference records how long one algorithm took.
func (c *Collectors) ObserveInference(algorithm string, d time.Duration) {
	if c == nil {
		return
	}
	c.inference.WithLabelValues(algorithm).Observe(d.Seconds())
}

// RunSucceeded counts a completed run.
func (c *Collectors) RunSucceeded() {
	if c == nil {
		return
	}
	c.runs.WithLabelValues("ok").Inc()
}

// SetAccuracy records the latest run's accuracy for an algorithm.
func (c *Collectors) SetAccuracy(algorithm string, ratio float64) {
	if c == nil {
		return
	}
	c.accuracy.WithLabelValues(algorithm).Set(ratio)
}

// RunFailed counts a failed run under a reason derived from err.
func (c *Collectors) RunFailed(err error) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues("error").Inc()
	c.failures.WithLabelValues(Reason(err)).Inc()
}

// Reason classifies err into a small, fixed label set.
func Reason(err error) string {
	var (
		fe *grid.FormatError
		le *hmm.InvalidLengthError
		ne *hmm.NormalizationError
		ue *hmm.UnknownObservationError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &fe):
		return "grid_format"
	case errors.As(err, &le):
		return "invalid_length"
	case errors.As(err, &ne):
		return "normalization"
	case errors.As(err, &ue):
		return "unknown_observation"
	case errors.Is(err, hmm.ErrNoFloor), errors.Is(err, hmm.ErrSamplingExhausted):
		return "sampling"
	default:
		return "other"
	}
}
