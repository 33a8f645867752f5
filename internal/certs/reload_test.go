package certs

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func newTestStatefulSet(name, namespace, instance string) *appsv1.StatefulSet {
	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				"app.kubernetes.io/instance":   instance,
				"app.kubernetes.io/managed-by": "kaniop",
			},
		},
	}
}

func TestSignalReloadNoStatefulSets(t *testing.T) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		t.Fatalf("adding core scheme: %v", err)
	}

	c := fake.NewClientBuilder().WithScheme(scheme).Build()
	signaler := NewKubernetesReloadSignaler(c)
	kanidm := newTestKanidm("test-cluster", "default")

	if err := signaler.SignalReload(context.Background(), logr.Discard(), kanidm, "test-hash"); err != nil {
		t.Fatalf("SignalReload() with no StatefulSets should not error, got: %v", err)
	}
}

func TestSignalReloadAnnotatesOwnedStatefulSets(t *testing.T) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		t.Fatalf("adding core scheme: %v", err)
	}

	kanidm := newTestKanidm("test-cluster", "default")
	sts := newTestStatefulSet("test-cluster-primary", "default", "test-cluster")
	other := newTestStatefulSet("unrelated", "default", "other-cluster")

	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(sts, other).Build()
	signaler := NewKubernetesReloadSignaler(c)

	if err := signaler.SignalReload(context.Background(), logr.Discard(), kanidm, "test-hash"); err != nil {
		t.Fatalf("SignalReload() error = %v", err)
	}

	got := &appsv1.StatefulSet{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "test-cluster-primary"}, got); err != nil {
		t.Fatalf("getting annotated StatefulSet: %v", err)
	}
	if got.Spec.Template.Annotations[tlsCertHashAnnotation] != "test-hash" {
		t.Fatalf("expected pod template annotation %q = %q, got %q", tlsCertHashAnnotation, "test-hash", got.Spec.Template.Annotations[tlsCertHashAnnotation])
	}

	untouched := &appsv1.StatefulSet{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "unrelated"}, untouched); err != nil {
		t.Fatalf("getting unrelated StatefulSet: %v", err)
	}
	if _, ok := untouched.Spec.Template.Annotations[tlsCertHashAnnotation]; ok {
		t.Fatal("expected unrelated StatefulSet to not be annotated")
	}
}

func TestSignalReloadSkipsAlreadyAnnotatedStatefulSet(t *testing.T) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		t.Fatalf("adding core scheme: %v", err)
	}

	kanidm := newTestKanidm("test-cluster", "default")
	sts := newTestStatefulSet("test-cluster-primary", "default", "test-cluster")
	sts.Spec.Template.Annotations = map[string]string{tlsCertHashAnnotation: "test-hash"}
	sts.ResourceVersion = "1"

	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(sts).Build()
	signaler := NewKubernetesReloadSignaler(c)

	if err := signaler.SignalReload(context.Background(), logr.Discard(), kanidm, "test-hash"); err != nil {
		t.Fatalf("SignalReload() error = %v", err)
	}

	got := &appsv1.StatefulSet{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: "default", Name: "test-cluster-primary"}, got); err != nil {
		t.Fatalf("getting StatefulSet: %v", err)
	}
	if got.ResourceVersion != "1" {
		t.Fatal("expected StatefulSet to be left untouched when already carrying the current hash")
	}
}
