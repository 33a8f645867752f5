package kanidm

import (
	"testing"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

func TestBuildIngressReturnsNilWithoutSpec(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")

	if got := buildIngress(kanidm); got != nil {
		t.Fatalf("expected nil Ingress, got %v", got)
	}
}

func TestBuildIngressIncludesExtraTLSHosts(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	kanidm.Spec.Ingress = &kaniopv1beta1.KanidmIngressSpec{
		ExtraTLSHosts: []string{"idm-extra.example.com"},
	}

	ingress := buildIngress(kanidm)
	if ingress == nil {
		t.Fatal("expected a non-nil Ingress")
	}
	if len(ingress.Spec.Rules) != 2 {
		t.Fatalf("expected 2 ingress rules (domain + extra host), got %d", len(ingress.Spec.Rules))
	}
	if len(ingress.Spec.TLS) != 1 || len(ingress.Spec.TLS[0].Hosts) != 2 {
		t.Fatal("expected a single TLS entry covering both hosts")
	}
}

func TestBuildIngressUsesExplicitTLSSecretName(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	kanidm.Spec.Ingress = &kaniopv1beta1.KanidmIngressSpec{TLSSecretName: "custom-tls"}

	ingress := buildIngress(kanidm)
	if ingress.Spec.TLS[0].SecretName != "custom-tls" {
		t.Fatalf("TLS SecretName = %q, want %q", ingress.Spec.TLS[0].SecretName, "custom-tls")
	}
}
