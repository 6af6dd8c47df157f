package initargs

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by an Injector.
// A nil *Metrics records nothing.
type Metrics struct {
	// Candidates counts injection attempts by outcome.
	Candidates *prometheus.CounterVec

	// Registrations counts services set into the registry.
	Registrations prometheus.Counter

	// Rejections counts services that could not be registered, by reason.
	Rejections *prometheus.CounterVec

	// PhaseFailures counts lifecycle notifications that failed, by phase.
	PhaseFailures *prometheus.CounterVec

	// PassDuration observes the duration of injection passes.
	PassDuration prometheus.Histogram
}

// NewMetrics creates unregistered collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "injector",
				Name:      "candidates_total",
				Help:      "Total number of injection attempts by outcome",
			},
			[]string{"outcome"},
		),
		Registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "injector",
				Name:      "registrations_total",
				Help:      "Total number of services set into the registry",
			},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "injector",
				Name:      "rejections_total",
				Help:      "Total number of services that could not be registered",
			},
			[]string{"reason"},
		),
		PhaseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "injector",
				Name:      "phase_failures_total",
				Help:      "Total number of failed lifecycle notifications",
			},
			[]string{"phase"},
		),
		PassDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "injector",
				Name:      "pass_duration_seconds",
				Help:      "Injection pass duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// Collectors returns every collector, for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Candidates, m.Registrations, m.Rejections, m.PhaseFailures, m.PassDuration}
}

// Register registers every collector with reg. Collectors that are already
// registered are ignored.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Metrics) candidate(outcome Outcome) {
	if m == nil {
		return
	}
	m.Candidates.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) registered() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) phaseFailed(phase Phase) {
	if m == nil {
		return
	}
	m.PhaseFailures.WithLabelValues(string(phase)).Inc()
}

func (m *Metrics) passDone(start time.Time) {
	if m == nil {
		return
	}
	m.PassDuration.Observe(time.Since(start).Seconds())
}
