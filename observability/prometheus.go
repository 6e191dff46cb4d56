package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver turns the event stream into Prometheus metrics:
//
//	<ns>_events_total{type,source}
//	<ns>_state_outcomes_total{machine,state,outcome}
//	<ns>_state_duration_seconds{machine,state}
//
// Outcome and duration metrics are only recorded for events that carry the
// "machine", "state", "outcome" and "duration" data keys.
type PrometheusObserver struct {
	events   *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil registerer uses prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of engine events by type and source.",
			},
			[]string{"type", "source"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_outcomes_total",
				Help:      "Total number of state activations by resulting outcome.",
			},
			[]string{"machine", "state", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "state_duration_seconds",
				Help:      "Duration of state activations.",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"machine", "state"},
		),
	}

	for _, c := range []prometheus.Collector{o.events, o.outcomes, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return o, nil
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Source).Inc()

	machine, ok := event.Data["machine"].(string)
	if !ok {
		return
	}
	state, ok := event.Data["state"].(string)
	if !ok {
		return
	}

	if outcome, ok := event.Data["outcome"].(string); ok {
		o.outcomes.WithLabelValues(machine, state, outcome).Inc()
	}
	if d, ok := event.Data["duration"].(time.Duration); ok {
		o.duration.WithLabelValues(machine, state).Observe(d.Seconds())
	}
}
