package kanidmconfig

import (
	"strings"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

func newMinimalKanidm(name, namespace string) *kaniopv1beta1.Kanidm {
	return &kaniopv1beta1.Kanidm{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec: kaniopv1beta1.KanidmSpec{
			Domain: "idm.example.com",
			ReplicaGroups: []kaniopv1beta1.ReplicaGroup{
				{Name: "primary", Replicas: 1, Role: kaniopv1beta1.ReplicaGroupRoleWriteReplica},
			},
		},
	}
}

func TestRenderIncludesCoreAttributes(t *testing.T) {
	kanidm := newMinimalKanidm("idm", "identity")

	got, err := Render(kanidm, RenderOptions{
		ReplicaGroupName: "primary",
		Role:             kaniopv1beta1.ReplicaGroupRoleWriteReplica,
		DataPath:         "/data/kanidm.db",
		TLSChainPath:     "/tls/tls.crt",
		TLSKeyPath:       "/tls/tls.key",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := string(got)
	for _, want := range []string{
		`domain = "idm.example.com"`,
		`origin = "https://idm.example.com"`,
		`db_path = "/data/kanidm.db"`,
		`role = "write_replica"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered config missing %q, got:\n%s", want, out)
		}
	}
}

func TestRenderRejectsEmptyDomain(t *testing.T) {
	kanidm := newMinimalKanidm("idm", "identity")
	kanidm.Spec.Domain = ""

	if _, err := Render(kanidm, RenderOptions{}); err == nil {
		t.Fatal("expected error for empty domain, got nil")
	}
}

func TestRenderIncludesReplicationStanzaWhenOriginSet(t *testing.T) {
	kanidm := newMinimalKanidm("idm", "identity")

	got, err := Render(kanidm, RenderOptions{
		ReplicationOrigin: "repl://idm-primary-0.idm.identity.svc:8444",
		ReplicationPartners: []ReplicationPartner{
			{Origin: "repl://idm-secondary-0.idm.identity.svc:8444", Type: kaniopv1beta1.ExternalReplicationMutualPull, Automatic: true},
		},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := string(got)
	if !strings.Contains(out, "replication") {
		t.Errorf("rendered config missing replication block, got:\n%s", out)
	}
	if !strings.Contains(out, "repl://idm-secondary-0.idm.identity.svc:8444") {
		t.Errorf("rendered config missing partner origin, got:\n%s", out)
	}
}

func TestRenderOmitsReplicationWhenOriginUnset(t *testing.T) {
	kanidm := newMinimalKanidm("idm", "identity")

	got, err := Render(kanidm, RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if strings.Contains(string(got), "replication") {
		t.Errorf("expected no replication block, got:\n%s", string(got))
	}
}
