package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder collects optimization metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	solveDuration      *prometheus.HistogramVec
	decisionVariables  *prometheus.GaugeVec
	proposalsTotal     *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	invariantViolation *prometheus.CounterVec
}

// NewRecorder creates a recorder and registers its collectors
func NewRecorder(namespace string) (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimization_runs_total",
				Help:      "Total number of optimization runs by final status",
			},
			[]string{"status"},
		),
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Wall time of a single solver invocation",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"solver", "strategy", "status"},
		),
		decisionVariables: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "decision_variables",
				Help:      "Number of decision variables in the last model built per strategy",
			},
			[]string{"strategy"},
		),
		proposalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proposals_total",
				Help:      "Total number of proposals generated",
			},
			[]string{"strategy", "status"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of runs rejected by data validation",
			},
			[]string{"kind"},
		),
		invariantViolation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invariant_violations_total",
				Help:      "Demand or budget violations detected after solving",
			},
			[]string{"solver", "kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		r.runsTotal, r.solveDuration, r.decisionVariables,
		r.proposalsTotal, r.validationFailures, r.invariantViolation,
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) RunFinished(status string) {
	r.runsTotal.WithLabelValues(status).Inc()
}

func (r *Recorder) SolveFinished(solver, strategy, status string, elapsed time.Duration) {
	r.solveDuration.WithLabelValues(solver, strategy, status).Observe(elapsed.Seconds())
}

func (r *Recorder) ModelBuilt(strategy string, variables int) {
	r.decisionVariables.WithLabelValues(strategy).Set(float64(variables))
}

func (r *Recorder) ProposalGenerated(strategy, status string) {
	r.proposalsTotal.WithLabelValues(strategy, status).Inc()
}

func (r *Recorder) ValidationFailed(kind string) {
	r.validationFailures.WithLabelValues(kind).Inc()
}

func (r *Recorder) InvariantViolated(solver, kind string) {
	r.invariantViolation.WithLabelValues(solver, kind).Inc()
}

// WriteTextfile writes all metrics in text exposition format for the node exporter
// textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".procure-metrics-*")
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode metric %s: %w", family.GetName(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
