package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics exposes counters/gauges for the patient workflow and the
// realtime fan-out.
type WorkflowMetrics struct {
	transitionsTotal *prometheus.CounterVec
	rejectedTotal    *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	realtimeClients  prometheus.Gauge
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	m := &WorkflowMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total patient status transitions",
		}, []string{"from", "to"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "workflow",
			Name:      "rejected_total",
			Help:      "Total transition submissions rejected before any write",
		}, []string{"stage"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "realtime",
			Name:      "events_published_total",
			Help:      "Total snapshot events published to subscribers",
		}, []string{"topic"}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hospital",
			Subsystem: "realtime",
			Name:      "connected_clients",
			Help:      "Currently connected realtime subscribers",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.rejectedTotal, m.eventsPublished, m.realtimeClients)
	return m
}

func (m *WorkflowMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *WorkflowMetrics) ObserveRejected(stage string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(stage).Inc()
}

func (m *WorkflowMetrics) ObserveEventPublished(topic string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(topic).Inc()
}

func (m *WorkflowMetrics) ClientConnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Inc()
}

func (m *WorkflowMetrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Dec()
}
