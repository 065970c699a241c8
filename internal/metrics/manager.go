// Package metrics exposes Prometheus instruments for the service and the
// exercise engines it runs.
package metrics

import (
	"github.com/claude/movecoach/internal/exercise"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests    *prometheus.CounterVec
	CounterFrames      *prometheus.CounterVec
	CounterTransitions *prometheus.CounterVec
	CounterRepetitions *prometheus.CounterVec
	CounterResults     prometheus.Counter

	// gauges
	GaugeSessions prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("movecoach", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("movecoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterFrames := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_total",
		Help:      "The total number of pose frames processed",
	}, []string{"exercise"})
	counterTransitions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "transitions_total",
		Help:      "The total number of state transitions, by entered state",
	}, []string{"exercise", "state"})
	counterRepetitions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "repetitions_total",
		Help:      "The total number of consumed repetitions, by outcome",
	}, []string{"exercise", "outcome"})
	counterResults := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "results_stored_total",
		Help:      "The total number of session results stored",
	})

	gaugeSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_sessions",
		Help:      "Current number of live exercise sessions",
	})

	histReqDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds",
	})

	return &Manager{
		CounterRequests:     counterRequests,
		CounterFrames:       counterFrames,
		CounterTransitions:  counterTransitions,
		CounterRepetitions:  counterRepetitions,
		CounterResults:      counterResults,
		GaugeSessions:       gaugeSessions,
		HistRequestDuration: histReqDuration,
	}
}

// Sink counts engine events. It is safe to share between engines.
func (m *Manager) Sink() exercise.Sink {
	return exercise.SinkFunc(func(ev exercise.Event) {
		switch ev.Kind {
		case exercise.EventTransition:
			m.CounterTransitions.WithLabelValues(ev.Exercise, ev.State.String()).Inc()
		case exercise.EventRepetition:
			outcome := "completed"
			if ev.GiveUp {
				outcome = "give_up"
			}
			m.CounterRepetitions.WithLabelValues(ev.Exercise, outcome).Inc()
		}
	})
}
