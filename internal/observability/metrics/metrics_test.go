package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWorkflowMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)
	m.ObserveTransition("waiting_for_doctor", "waiting_for_cashier")
	m.ObserveRejected("doctor")
	m.ObserveEventPublished("patients")
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	tr, ok := byName["hospital_workflow_transitions_total"]
	if !ok {
		t.Fatal("transitions counter not registered")
	}
	if got := tr.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 transition, got %f", got)
	}

	clients, ok := byName["hospital_realtime_connected_clients"]
	if !ok {
		t.Fatal("clients gauge not registered")
	}
	if got := clients.GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Fatalf("expected 1 connected client, got %f", got)
	}
}

func TestWorkflowMetricsNilSafe(t *testing.T) {
	var m *WorkflowMetrics
	m.ObserveTransition("a", "b")
	m.ObserveRejected("cashier")
	m.ObserveEventPublished("users")
	m.ClientConnected()
	m.ClientDisconnected()
}
