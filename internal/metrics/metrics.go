// Package metrics counts link traffic and effect activity for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	LinesSent     prometheus.Counter
	SendErrors    prometheus.Counter
	LinesReceived prometheus.Counter
	LinesDropped  *prometheus.CounterVec
	ParseErrors   *prometheus.CounterVec
	Activations   *prometheus.CounterVec
	AckTimeouts   prometheus.Counter
	Abandoned     prometheus.Counter
	ActiveMood    *prometheus.GaugeVec
}

// New registers the moodlight collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		LinesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "moodlight_link_lines_sent_total",
			Help: "Command lines written to the serial link",
		}),
		SendErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "moodlight_link_send_errors_total",
			Help: "Command lines that failed to write",
		}),
		LinesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "moodlight_link_lines_received_total",
			Help: "Complete lines read from the serial link",
		}),
		LinesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodlight_link_lines_dropped_total",
			Help: "Lines discarded before reaching a reader",
		}, []string{"reason"}),
		ParseErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodlight_parse_errors_total",
			Help: "Lines rejected by a mood grammar",
		}, []string{"mood"}),
		Activations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodlight_effect_activations_total",
			Help: "Effect routines started",
		}, []string{"mood"}),
		AckTimeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "moodlight_focus_ack_timeouts_total",
			Help: "Focus activations that did not see DONE in time",
		}),
		Abandoned: f.NewCounter(prometheus.CounterOpts{
			Name: "moodlight_workers_abandoned_total",
			Help: "Effect routines that missed the join deadline",
		}),
		ActiveMood: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "moodlight_active_mood",
			Help: "1 for the mood currently running on this node",
		}, []string{"mood"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Sent() {
	if m != nil {
		m.LinesSent.Inc()
	}
}

func (m *Metrics) SendError() {
	if m != nil {
		m.SendErrors.Inc()
	}
}

func (m *Metrics) Received() {
	if m != nil {
		m.LinesReceived.Inc()
	}
}

func (m *Metrics) Dropped(reason string) {
	if m != nil {
		m.LinesDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ParseError(mood string) {
	if m != nil {
		m.ParseErrors.WithLabelValues(mood).Inc()
	}
}

func (m *Metrics) AckTimeout() {
	if m != nil {
		m.AckTimeouts.Inc()
	}
}

func (m *Metrics) WorkerAbandoned() {
	if m != nil {
		m.Abandoned.Inc()
	}
}

// Activated counts a start and marks mood as the only active one.
func (m *Metrics) Activated(mood string) {
	if m == nil {
		return
	}
	m.Activations.WithLabelValues(mood).Inc()
	m.ActiveMood.Reset()
	m.ActiveMood.WithLabelValues(mood).Set(1)
}

// Finished drops mood from the active mood gauge. A mood activated since is
// left alone.
func (m *Metrics) Finished(mood string) {
	if m != nil {
		m.ActiveMood.DeleteLabelValues(mood)
	}
}

// Idle clears the active mood gauge.
func (m *Metrics) Idle() {
	if m != nil {
		m.ActiveMood.Reset()
	}
}
