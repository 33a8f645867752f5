package kanidm

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

const replicationProbeTimeout = 5 * time.Second

// probeReplicationPeer dials host:port and completes a TLS handshake,
// reporting whether the peer is reachable (spec §4.5 step 7: unreachable
// peers surface via ReplicationHealthy but never block reconcile).
// Grounded on the teacher's internal/probe/prober.go CheckStartup TCP
// dial, extended with a TLS handshake since replication traffic is
// always encrypted, unlike OpenBao's plain startup probe.
func probeReplicationPeer(ctx context.Context, host string, port int32) error {
	ctx, cancel := context.WithTimeout(ctx, replicationProbeTimeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("dialing replication peer %s:%d: %w", host, port, err)
	}
	defer conn.Close()

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true, // #nosec G402 -- reachability probe only, peer identity is verified at the kanidmd replication layer via the configured CertificateSecretRef, not here.
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return fmt.Errorf("TLS handshake with replication peer %s:%d: %w", host, port, err)
	}
	return nil
}

// buildReplicationTopology computes the replicationTopology a given
// replica group's pods render into their kanidm-config-init env vars
// (spec §4.5 step 7): the group's own replication origin (set whenever
// more than one replication participant exists) and the partner list
// drawn from sibling replica groups plus external replication nodes.
func buildReplicationTopology(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) replicationTopology {
	participantCount := len(kanidm.Spec.ReplicaGroups) + len(kanidm.Spec.ExternalReplicationNodes)
	if participantCount <= 1 {
		return replicationTopology{}
	}

	origin := fmt.Sprintf("https://%s.%s:443", headlessServiceName(kanidm, group), kanidm.Namespace)

	var partners []kanidmconfigPartner
	for _, sibling := range kanidm.Spec.ReplicaGroups {
		if sibling.Name == group.Name {
			continue
		}
		partners = append(partners, kanidmconfigPartner{
			Origin:    fmt.Sprintf("https://%s.%s:443", headlessServiceName(kanidm, sibling), kanidm.Namespace),
			Type:      kaniopv1beta1.ExternalReplicationMutualPull,
			Automatic: true,
		})
	}
	for _, node := range kanidm.Spec.ExternalReplicationNodes {
		certPath := ""
		if node.CertificateSecretRef != nil {
			certPath = replicationTLSMountPath + "/" + node.Name + ".crt"
		}
		partners = append(partners, kanidmconfigPartner{
			Origin:       fmt.Sprintf("https://%s:%d", node.Hostname, node.Port),
			Type:         node.Type,
			Automatic:    node.AutomaticRefresh,
			CertFilePath: certPath,
		})
	}

	return replicationTopology{ReplicationOrigin: origin, ReplicationPartners: partners}
}

// replicationTarget is one participant the replication-health probe
// dials; the probe runs inline in each Reconcile pass (spec §4.5 step 7).
type replicationTarget struct {
	Name     string
	Hostname string
	Port     int32
}

// replicationTargets lists every external replication node configured
// on the cluster.
func replicationTargets(kanidm *kaniopv1beta1.Kanidm) []replicationTarget {
	targets := make([]replicationTarget, 0, len(kanidm.Spec.ExternalReplicationNodes))
	for _, node := range kanidm.Spec.ExternalReplicationNodes {
		targets = append(targets, replicationTarget{Name: node.Name, Hostname: node.Hostname, Port: node.Port})
	}
	return targets
}
