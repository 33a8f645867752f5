package kanidm

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/backoff"
	"github.com/kaniop/kaniop/internal/constants"
	"github.com/kaniop/kaniop/internal/kaniopcontext"
	"github.com/kaniop/kaniop/internal/status"
)

func newTestReconciler(t *testing.T, objs ...client.Object) (*Reconciler, client.Client) {
	t.Helper()
	scheme := newTestScheme(t)
	c := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&kaniopv1beta1.Kanidm{}).WithObjects(objs...).Build()

	return &Reconciler{
		Context: kaniopcontext.Context{
			Client:  c,
			Scheme:  scheme,
			Log:     logr.Discard(),
			Backoff: backoff.New(),
			Stores:  &kaniopcontext.Stores{},
		},
	}, c
}

func TestReconcileCreatesStatefulSetAndServices(t *testing.T) {
	kanidm := newTestKanidm("idm", "identity")
	kanidm.Finalizers = []string{constants.FinalizerKanidm}
	r, c := newTestReconciler(t, kanidm)

	_, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: kanidm.Namespace, Name: kanidm.Name}})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	group := kanidm.Spec.ReplicaGroups[0]
	sts := &appsv1.StatefulSet{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: kanidm.Namespace, Name: statefulSetName(kanidm, group)}, sts); err != nil {
		t.Fatalf("expected statefulset to exist: %v", err)
	}

	updated := &kaniopv1beta1.Kanidm{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: kanidm.Namespace, Name: kanidm.Name}, updated); err != nil {
		t.Fatalf("getting reconciled kanidm: %v", err)
	}
	if status.Get(updated.Status.Conditions, constants.ConditionInitialized) == nil {
		t.Fatal("expected ConditionInitialized to be set after reconcile")
	}
}

func TestReconcileIsTerminalOnInvalidSpec(t *testing.T) {
	kanidm := newTestKanidm("idm-invalid", "identity")
	kanidm.Finalizers = []string{constants.FinalizerKanidm}
	kanidm.Spec.ReplicaGroups = []kaniopv1beta1.ReplicaGroup{
		{Name: "a", Replicas: 1, PrimaryNode: true},
		{Name: "b", Replicas: 1, PrimaryNode: true},
	}
	r, c := newTestReconciler(t, kanidm)

	result, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: kanidm.Namespace, Name: kanidm.Name}})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.RequeueAfter != 0 {
		t.Fatal("expected no requeue for a terminally invalid spec")
	}

	updated := &kaniopv1beta1.Kanidm{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: kanidm.Namespace, Name: kanidm.Name}, updated); err != nil {
		t.Fatalf("getting reconciled kanidm: %v", err)
	}
	if !status.IsFalse(updated.Status.Conditions, constants.ConditionReady) {
		t.Fatal("expected ConditionReady to be false for an invalid spec")
	}
}

func TestReconcileReturnsNilForMissingKanidm(t *testing.T) {
	r, _ := newTestReconciler(t)

	result, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: "default", Name: "missing"}})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.RequeueAfter != 0 {
		t.Fatal("expected an empty result for a missing object")
	}
}

func TestFinalizeDeletesOwnedStatefulSets(t *testing.T) {
	kanidm := newTestKanidm("idm", "identity")
	group := kanidm.Spec.ReplicaGroups[0]
	r, c := newTestReconciler(t, kanidm)

	sts, err := buildStatefulSet(kanidm, group, replicationTopology{})
	if err != nil {
		t.Fatalf("buildStatefulSet() error = %v", err)
	}
	if err := c.Create(context.Background(), sts); err != nil {
		t.Fatalf("creating statefulset: %v", err)
	}

	if err := r.Finalize(context.Background(), kanidm); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	check := &appsv1.StatefulSet{}
	err = c.Get(context.Background(), types.NamespacedName{Namespace: kanidm.Namespace, Name: statefulSetName(kanidm, group)}, check)
	if err == nil {
		t.Fatal("expected the statefulset to be deleted after Finalize")
	}
}
