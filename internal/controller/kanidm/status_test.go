package kanidm

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/kaniop/kaniop/internal/constants"
	"github.com/kaniop/kaniop/internal/status"
)

func TestAggregateStatusSetsReadyWhenAllReplicasAvailable(t *testing.T) {
	_, builder := newFakeClient(t)
	kanidm := newTestKanidm("idm", "default")
	group := kanidm.Spec.ReplicaGroups[0]

	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: statefulSetName(kanidm, group), Namespace: kanidm.Namespace},
		Spec:       appsv1.StatefulSetSpec{Replicas: ptr.To(group.Replicas), Selector: &metav1.LabelSelector{}},
	}
	c := builder.WithObjects(sts).WithStatusSubresource(sts).Build()

	sts.Status.ReadyReplicas = group.Replicas
	if err := c.Status().Update(context.Background(), sts); err != nil {
		t.Fatalf("seeding statefulset status: %v", err)
	}

	if err := aggregateStatus(context.Background(), c, kanidm, true, nil); err != nil {
		t.Fatalf("aggregateStatus() error = %v", err)
	}

	if !status.IsTrue(kanidm.Status.Conditions, constants.ConditionReady) {
		t.Fatal("expected ConditionReady to be true once all replicas are available")
	}
	if kanidm.Status.AvailableReplicas != group.Replicas {
		t.Fatalf("AvailableReplicas = %d, want %d", kanidm.Status.AvailableReplicas, group.Replicas)
	}
}

func TestAggregateStatusSetsInvalidOnSkewError(t *testing.T) {
	_, builder := newFakeClient(t)
	c := builder.Build()
	kanidm := newTestKanidm("idm", "default")

	if err := aggregateStatus(context.Background(), c, kanidm, true, errSkewForTest{}); err != nil {
		t.Fatalf("aggregateStatus() error = %v", err)
	}

	if !status.IsFalse(kanidm.Status.Conditions, constants.ConditionReady) {
		t.Fatal("expected ConditionReady to be false when a skew error is present")
	}
	if !status.IsFalse(kanidm.Status.Conditions, constants.ConditionUpgrading) {
		t.Fatal("expected ConditionUpgrading to be false with reason SkewTooLarge")
	}
}

func TestRecordReplicationPeerStatusAppendsAndUpdates(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")

	recordReplicationPeerStatus(kanidm, "peer-a", true, metav1.Now())
	if len(kanidm.Status.Replication) != 1 {
		t.Fatalf("expected one replication peer entry, got %d", len(kanidm.Status.Replication))
	}
	if !status.IsTrue(kanidm.Status.Conditions, constants.ConditionReplicationHealthy) {
		t.Fatal("expected ReplicationHealthy to be true with one healthy peer")
	}

	recordReplicationPeerStatus(kanidm, "peer-a", false, metav1.Now())
	if len(kanidm.Status.Replication) != 1 {
		t.Fatalf("expected the existing peer entry to be updated, not appended, got %d entries", len(kanidm.Status.Replication))
	}
	if !status.IsFalse(kanidm.Status.Conditions, constants.ConditionReplicationHealthy) {
		t.Fatal("expected ReplicationHealthy to be false once the peer is unhealthy")
	}
}

type errSkewForTest struct{}

func (errSkewForTest) Error() string { return "upgrade from a to b crosses a major version" }
