package kanidm

import (
	"context"
	"testing"
	"time"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

func TestBuildReplicationTopologyIsEmptyForSingleGroup(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")

	topology := buildReplicationTopology(kanidm, kanidm.Spec.ReplicaGroups[0])
	if topology.ReplicationOrigin != "" || len(topology.ReplicationPartners) != 0 {
		t.Fatal("expected an empty topology for a single replica group with no external nodes")
	}
}

func TestBuildReplicationTopologyIncludesSiblingGroupsAndExternalNodes(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	kanidm.Spec.ReplicaGroups = []kaniopv1beta1.ReplicaGroup{
		{Name: "a", Replicas: 1},
		{Name: "b", Replicas: 1},
	}
	kanidm.Spec.ExternalReplicationNodes = []kaniopv1beta1.ExternalReplicationNode{
		{Name: "remote", Hostname: "idm-remote.example.com", Port: 8443, Type: kaniopv1beta1.ExternalReplicationMutualPull, AutomaticRefresh: true},
	}

	topology := buildReplicationTopology(kanidm, kanidm.Spec.ReplicaGroups[0])
	if topology.ReplicationOrigin == "" {
		t.Fatal("expected a non-empty replication origin")
	}
	if len(topology.ReplicationPartners) != 2 {
		t.Fatalf("expected 2 replication partners (sibling group + external node), got %d", len(topology.ReplicationPartners))
	}
}

func TestProbeReplicationPeerFailsForUnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// 192.0.2.0/24 is reserved (TEST-NET-1) and never routable, so the
	// dial consistently fails without depending on external network state.
	if err := probeReplicationPeer(ctx, "192.0.2.1", 8443); err == nil {
		t.Fatal("expected an error probing an unreachable replication peer")
	}
}

func TestReplicationTargetsListsExternalNodesOnly(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	kanidm.Spec.ExternalReplicationNodes = []kaniopv1beta1.ExternalReplicationNode{
		{Name: "remote", Hostname: "idm-remote.example.com", Port: 8443},
	}

	targets := replicationTargets(kanidm)
	if len(targets) != 1 || targets[0].Name != "remote" {
		t.Fatalf("expected a single target named %q, got %+v", "remote", targets)
	}
}
