package kanidm

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

func TestGeneratePasswordProducesDistinctValues(t *testing.T) {
	a, err := generatePassword()
	if err != nil {
		t.Fatalf("generatePassword() error = %v", err)
	}
	b, err := generatePassword()
	if err != nil {
		t.Fatalf("generatePassword() error = %v", err)
	}
	if a == b {
		t.Fatal("expected two independently generated passwords to differ")
	}
	if len(a) == 0 {
		t.Fatal("expected a non-empty password")
	}
}

func TestEnsureAdminSecretCreatesBothCredentials(t *testing.T) {
	scheme, builder := newFakeClient(t)
	c := builder.Build()
	kanidm := newTestKanidm("bootstrap", "identity")

	created, err := EnsureAdminSecret(context.Background(), c, scheme, kanidm)
	if err != nil {
		t.Fatalf("EnsureAdminSecret() error = %v", err)
	}
	if !created {
		t.Fatal("expected EnsureAdminSecret to report creation on first call")
	}

	secret := &corev1.Secret{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: kanidm.Namespace, Name: adminSecretName(kanidm)}, secret); err != nil {
		t.Fatalf("expected admin secret to exist: %v", err)
	}
	if secret.StringData[adminPasswordKey] == "" || secret.StringData[idmAdminPasswordKey] == "" {
		t.Fatal("expected both admin and idm_admin passwords to be set")
	}
}

func TestEnsureAdminSecretIsIdempotent(t *testing.T) {
	scheme, builder := newFakeClient(t)
	c := builder.Build()
	kanidm := newTestKanidm("bootstrap-idempotent", "identity")

	if _, err := EnsureAdminSecret(context.Background(), c, scheme, kanidm); err != nil {
		t.Fatalf("first EnsureAdminSecret() error = %v", err)
	}

	first := &corev1.Secret{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: kanidm.Namespace, Name: adminSecretName(kanidm)}, first); err != nil {
		t.Fatalf("expected admin secret to exist: %v", err)
	}

	created, err := EnsureAdminSecret(context.Background(), c, scheme, kanidm)
	if err != nil {
		t.Fatalf("second EnsureAdminSecret() error = %v", err)
	}
	if created {
		t.Fatal("expected second EnsureAdminSecret call to report no creation")
	}
}

func TestAdminSecretName(t *testing.T) {
	kanidm := &kaniopv1beta1.Kanidm{}
	kanidm.Name = "prod"
	if got, want := adminSecretName(kanidm), "prod-admin"; got != want {
		t.Fatalf("adminSecretName() = %q, want %q", got, want)
	}
}
