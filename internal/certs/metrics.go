package certs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	tlsCertExpiryTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kaniop",
			Name:      "tls_cert_expiry_timestamp",
			Help:      "Unix timestamp when the current Kanidm server certificate expires",
		},
		[]string{"namespace", "name"},
	)

	tlsRotationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kaniop",
			Name:      "tls_rotation_total",
			Help:      "Total number of Kanidm server certificate rotations",
		},
		[]string{"namespace", "name"},
	)
)

func init() {
	metrics.Registry.MustRegister(tlsCertExpiryTimestamp, tlsRotationTotal)
}

// tlsMetrics provides helpers to record TLS-related metrics for one
// Kanidm cluster.
type tlsMetrics struct {
	namespace string
	name      string
}

func newTLSMetrics(namespace, name string) *tlsMetrics {
	return &tlsMetrics{namespace: namespace, name: name}
}

func (m *tlsMetrics) setServerCertExpiry(expiry time.Time) {
	tlsCertExpiryTimestamp.WithLabelValues(m.namespace, m.name).Set(float64(expiry.Unix()))
}

func (m *tlsMetrics) incrementRotation() {
	tlsRotationTotal.WithLabelValues(m.namespace, m.name).Inc()
}
