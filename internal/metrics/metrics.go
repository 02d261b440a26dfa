// Package metrics collects per-model training measurements.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Training holds the collectors of one training run, labelled by solver and
// variant.
type Training struct {
	registry *prometheus.Registry

	Duration   *prometheus.HistogramVec
	Iterations *prometheus.GaugeVec
	Loss       *prometheus.GaugeVec
	Trained    *prometheus.CounterVec
}

// NewTraining creates the collectors and registers them on a fresh registry.
func NewTraining() *Training {
	labels := []string{"solver", "variant"}
	m := &Training{
		registry: prometheus.NewRegistry(),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "popscore_training_duration_seconds",
			Help:    "Wall time spent training one model",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, labels),
		Iterations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "popscore_training_iterations",
			Help: "Gradient-descent iterations run by the last fit",
		}, labels),
		Loss: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "popscore_training_loss",
			Help: "Final regularized training loss of the last gradient-descent fit",
		}, labels),
		Trained: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "popscore_models_trained_total",
			Help: "Number of models trained and persisted",
		}, labels),
	}
	m.registry.MustRegister(m.Duration, m.Iterations, m.Loss, m.Trained)
	return m
}

// ObserveFit records a finished fit. iterations and loss are skipped when
// negative, which closed-form fits report.
func (m *Training) ObserveFit(solver, variant string, elapsed time.Duration, iterations int, loss float64) {
	m.Duration.WithLabelValues(solver, variant).Observe(elapsed.Seconds())
	if iterations >= 0 {
		m.Iterations.WithLabelValues(solver, variant).Set(float64(iterations))
	}
	if loss >= 0 {
		m.Loss.WithLabelValues(solver, variant).Set(loss)
	}
}

// ObserveSaved counts a persisted model.
func (m *Training) ObserveSaved(solver, variant string) {
	m.Trained.WithLabelValues(solver, variant).Inc()
}

// Registry exposes the registry for gathering.
func (m *Training) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes every collected metric to path in the Prometheus text format.
func (m *Training) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
