package kanidm

import (
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

func newTestScheme(t *testing.T) *runtime.Scheme {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		t.Fatalf("adding core scheme: %v", err)
	}
	if err := kaniopv1beta1.AddToScheme(scheme); err != nil {
		t.Fatalf("adding kaniop scheme: %v", err)
	}
	return scheme
}

func newTestKanidm(name, namespace string) *kaniopv1beta1.Kanidm {
	return &kaniopv1beta1.Kanidm{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec: kaniopv1beta1.KanidmSpec{
			Domain: "idm.example.com",
			ReplicaGroups: []kaniopv1beta1.ReplicaGroup{
				{Name: "primary", Replicas: 3, Role: kaniopv1beta1.ReplicaGroupRoleWriteReplica},
			},
		},
	}
}

func newFakeClient(t *testing.T) (*runtime.Scheme, *fake.ClientBuilder) {
	t.Helper()
	scheme := newTestScheme(t)
	return scheme, fake.NewClientBuilder().WithScheme(scheme)
}
