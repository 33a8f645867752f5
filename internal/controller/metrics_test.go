package controller

import "testing"

func TestReconcileMetricsNoPanic(t *testing.T) {
	m := NewReconcileMetrics("ns", "name", "ctrl")
	m.ObserveDuration(0.5)
	m.ObserveDuration(1.0)
	m.IncrementError("KubernetesAPIError")
}

func TestClusterMetricsNoPanic(t *testing.T) {
	m := NewClusterMetrics("ns", "name")
	m.SetAvailableReplicas(3)
	m.SetPeerHealthy("primary", true)
	m.SetPeerHealthy("secondary", false)
	m.Clear()
}

func TestClientPoolMetricsNoPanic(t *testing.T) {
	m := NewClientPoolMetrics("ns", "name")
	m.RecordRequest("ok")
	m.RecordRequest("auth_failed")
	m.RecordCircuitBreakerOpen()
}
