package security

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

func TestVerifyImageForKanidmSkipsWhenUnconfigured(t *testing.T) {
	kanidm := &kaniopv1beta1.Kanidm{ObjectMeta: metav1.ObjectMeta{Name: "idm", Namespace: "identity"}}

	got, err := VerifyImageForKanidm(context.Background(), logr.Discard(), fake.NewClientBuilder().Build(), kanidm, "ghcr.io/kanidm/kanidmd:latest")
	if err != nil {
		t.Fatalf("VerifyImageForKanidm() error = %v", err)
	}
	if got != "ghcr.io/kanidm/kanidmd:latest" {
		t.Fatalf("expected unchanged image reference, got %q", got)
	}
}

func TestVerifyImageForKanidmRequiresImageRef(t *testing.T) {
	kanidm := &kaniopv1beta1.Kanidm{
		ObjectMeta: metav1.ObjectMeta{Name: "idm", Namespace: "identity"},
		Spec:       kaniopv1beta1.KanidmSpec{ImageVerification: &kaniopv1beta1.ImageVerificationSpec{PublicKey: "pem-key"}},
	}

	if _, err := VerifyImageForKanidm(context.Background(), logr.Discard(), fake.NewClientBuilder().Build(), kanidm, ""); err == nil {
		t.Fatal("expected error for empty image reference")
	}
}
