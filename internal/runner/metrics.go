package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"editbench/internal/engine"
	"editbench/internal/scoring"
)

// Metrics holds per-run Prometheus collectors on a private registry so a
// run can be written to a textfile without process-wide state. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// verdictsTotal counts verdicts by engine and status.
	verdictsTotal *prometheus.CounterVec
	// suggestDuration measures engine call latency by engine and outcome.
	suggestDuration *prometheus.HistogramVec
	// engineErrorsTotal counts failed engine calls by engine and kind.
	engineErrorsTotal *prometheus.CounterVec
}

// NewMetrics registers the harness collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		verdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "editbench",
				Name:      "verdicts_total",
				Help:      "Verdicts by engine and status.",
			},
			[]string{"engine", "status"},
		),
		suggestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "editbench",
				Name:      "suggest_duration_seconds",
				Help:      "Duration of engine suggestion calls in seconds.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"engine", "outcome"},
		),
		engineErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "editbench",
				Name:      "engine_errors_total",
				Help:      "Failed engine calls by engine and kind.",
			},
			[]string{"engine", "kind"},
		),
	}
}

// Registry exposes the collectors, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteFile writes the registry in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (m *Metrics) observeSuggest(engineName string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		m.engineErrorsTotal.WithLabelValues(engineName, classifyEngineError(err)).Inc()
	}
	m.suggestDuration.WithLabelValues(engineName, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) observeVerdict(engineName string, status scoring.Status) {
	if m == nil {
		return
	}
	m.verdictsTotal.WithLabelValues(engineName, string(status)).Inc()
}

// classifyEngineError maps an error to a label-safe kind.
func classifyEngineError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, engine.ErrUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
