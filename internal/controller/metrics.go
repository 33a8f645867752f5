package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	reconcileDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kaniop",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation loops in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"namespace", "name", "controller"},
	)

	reconcileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kaniop",
			Name:      "reconcile_errors_total",
			Help:      "Total number of reconciliation errors",
		},
		[]string{"namespace", "name", "controller", "reason"},
	)

	clusterAvailableReplicasGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kaniop",
			Name:      "cluster_available_replicas",
			Help:      "Number of available replicas for a Kanidm cluster",
		},
		[]string{"namespace", "name"},
	)

	replicationPeerHealthyGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kaniop",
			Name:      "replication_peer_healthy",
			Help:      "Whether a Kanidm replication peer was healthy as of the last probe (1) or not (0)",
		},
		[]string{"namespace", "name", "peer"},
	)

	kanidmClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kaniop",
			Name:      "kanidm_client_requests_total",
			Help:      "Total number of requests made to Kanidm clusters by the operator's client pool",
		},
		[]string{"namespace", "name", "outcome"},
	)

	kanidmCircuitBreakerOpenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kaniop",
			Name:      "kanidm_circuit_breaker_open_total",
			Help:      "Total number of times the client pool's circuit breaker opened for a cluster",
		},
		[]string{"namespace", "name"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		reconcileDurationHistogram,
		reconcileErrorsTotal,
		clusterAvailableReplicasGauge,
		replicationPeerHealthyGauge,
		kanidmClientRequestsTotal,
		kanidmCircuitBreakerOpenTotal,
	)
}

// ReconcileMetrics records reconcile-level metrics for a specific
// controller and custom resource.
type ReconcileMetrics struct {
	namespace  string
	name       string
	controller string
}

// NewReconcileMetrics creates a new ReconcileMetrics instance.
func NewReconcileMetrics(namespace, name, controller string) *ReconcileMetrics {
	return &ReconcileMetrics{namespace: namespace, name: name, controller: controller}
}

// ObserveDuration records the duration of a reconcile loop in seconds.
func (m *ReconcileMetrics) ObserveDuration(durationSeconds float64) {
	reconcileDurationHistogram.WithLabelValues(m.namespace, m.name, m.controller).Observe(durationSeconds)
}

// IncrementError increments the reconcile error counter with the given
// reason. Reason values should be low-cardinality, e.g. "KubernetesAPIError".
func (m *ReconcileMetrics) IncrementError(reason string) {
	reconcileErrorsTotal.WithLabelValues(m.namespace, m.name, m.controller, reason).Inc()
}

// ClusterMetrics records per-cluster state metrics for a Kanidm resource.
type ClusterMetrics struct {
	namespace string
	name      string
}

// NewClusterMetrics creates a new ClusterMetrics instance.
func NewClusterMetrics(namespace, name string) *ClusterMetrics {
	return &ClusterMetrics{namespace: namespace, name: name}
}

// SetAvailableReplicas records the number of available replicas.
func (m *ClusterMetrics) SetAvailableReplicas(available int32) {
	clusterAvailableReplicasGauge.WithLabelValues(m.namespace, m.name).Set(float64(available))
}

// SetPeerHealthy records the last observed health of one replication peer.
func (m *ClusterMetrics) SetPeerHealthy(peer string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	replicationPeerHealthyGauge.WithLabelValues(m.namespace, m.name, peer).Set(v)
}

// Clear removes all per-cluster metric series for this cluster. Called
// during finalization to avoid leaving stale series behind.
func (m *ClusterMetrics) Clear() {
	clusterAvailableReplicasGauge.DeleteLabelValues(m.namespace, m.name)
	replicationPeerHealthyGauge.DeletePartialMatch(prometheus.Labels{"namespace": m.namespace, "name": m.name})
}

// ClientPoolMetrics records Kanidm client pool activity for a cluster.
type ClientPoolMetrics struct {
	namespace string
	name      string
}

// NewClientPoolMetrics creates a new ClientPoolMetrics instance.
func NewClientPoolMetrics(namespace, name string) *ClientPoolMetrics {
	return &ClientPoolMetrics{namespace: namespace, name: name}
}

// RecordRequest increments the request counter for the given outcome,
// e.g. "ok", "auth_failed", "remote_error", "network_error".
func (m *ClientPoolMetrics) RecordRequest(outcome string) {
	kanidmClientRequestsTotal.WithLabelValues(m.namespace, m.name, outcome).Inc()
}

// RecordCircuitBreakerOpen increments the circuit breaker open counter.
func (m *ClientPoolMetrics) RecordCircuitBreakerOpen() {
	kanidmCircuitBreakerOpenTotal.WithLabelValues(m.namespace, m.name).Inc()
}
