package kanidmentity

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
	"github.com/kaniop/kaniop/internal/kanidmclient"
)

func TestResolveClusterIdentityDefaultsNamespace(t *testing.T) {
	cluster, err := ResolveClusterIdentity(kaniopv1beta1.KanidmRef{Name: "idm"}, "identity", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := kanidmclient.ClusterIdentity{Namespace: "identity", Name: "idm"}
	if cluster != want {
		t.Fatalf("ResolveClusterIdentity() = %+v, want %+v", cluster, want)
	}
}

func TestResolveClusterIdentityRejectsCrossNamespaceByDefault(t *testing.T) {
	_, err := ResolveClusterIdentity(kaniopv1beta1.KanidmRef{Namespace: "other", Name: "idm"}, "identity", false)
	if err == nil {
		t.Fatal("expected an error for a cross-namespace kanidmRef")
	}
	if kanioperrors.KindOf(err) != kanioperrors.KindInvalid {
		t.Fatalf("KindOf(err) = %v, want KindInvalid", kanioperrors.KindOf(err))
	}
}

func TestResolveClusterIdentityAllowsCrossNamespaceForOAuth2(t *testing.T) {
	cluster, err := ResolveClusterIdentity(kaniopv1beta1.KanidmRef{Namespace: "other", Name: "idm"}, "identity", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := kanidmclient.ClusterIdentity{Namespace: "other", Name: "idm"}
	if cluster != want {
		t.Fatalf("ResolveClusterIdentity() = %+v, want %+v", cluster, want)
	}
}

func newSchemeClient(objs ...client.Object) client.Client {
	return fake.NewClientBuilder().WithScheme(testScheme()).WithObjects(objs...).Build()
}

func testScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	_ = kaniopv1beta1.AddToScheme(scheme)
	return scheme
}

func TestResolveClientConfigNotFoundKinds(t *testing.T) {
	cluster := kanidmclient.ClusterIdentity{Namespace: "identity", Name: "idm"}

	t.Run("missing kanidm", func(t *testing.T) {
		c := newSchemeClient()
		_, err := ResolveClientConfig(context.Background(), c, cluster)
		if kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
			t.Fatalf("KindOf(err) = %v, want KindNotFound", kanioperrors.KindOf(err))
		}
	})

	t.Run("missing admin secret", func(t *testing.T) {
		kanidm := &kaniopv1beta1.Kanidm{
			ObjectMeta: metav1.ObjectMeta{Name: "idm", Namespace: "identity"},
			Spec:       kaniopv1beta1.KanidmSpec{Domain: "idm.example.com"},
		}
		c := newSchemeClient(kanidm)
		_, err := ResolveClientConfig(context.Background(), c, cluster)
		if kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
			t.Fatalf("KindOf(err) = %v, want KindNotFound", kanioperrors.KindOf(err))
		}
	})

	t.Run("missing ca secret", func(t *testing.T) {
		kanidm := &kaniopv1beta1.Kanidm{
			ObjectMeta: metav1.ObjectMeta{Name: "idm", Namespace: "identity"},
			Spec:       kaniopv1beta1.KanidmSpec{Domain: "idm.example.com"},
		}
		adminSecret := &corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Name: "idm-admin", Namespace: "identity"},
			Data:       map[string][]byte{"idm_admin-password": []byte("s3cr3t")},
		}
		c := newSchemeClient(kanidm, adminSecret)
		_, err := ResolveClientConfig(context.Background(), c, cluster)
		if kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
			t.Fatalf("KindOf(err) = %v, want KindNotFound", kanioperrors.KindOf(err))
		}
	})
}

func TestResolveClientConfigSuccess(t *testing.T) {
	cluster := kanidmclient.ClusterIdentity{Namespace: "identity", Name: "idm"}

	kanidm := &kaniopv1beta1.Kanidm{
		ObjectMeta: metav1.ObjectMeta{Name: "idm", Namespace: "identity"},
		Spec:       kaniopv1beta1.KanidmSpec{Domain: "idm.example.com"},
	}
	adminSecret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "idm-admin", Namespace: "identity"},
		Data:       map[string][]byte{"idm_admin-password": []byte("s3cr3t")},
	}
	caSecret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "idm-tls-ca", Namespace: "identity"},
		Data:       map[string][]byte{"ca.crt": []byte("PEM")},
	}
	c := newSchemeClient(kanidm, adminSecret, caSecret)

	cfg, err := ResolveClientConfig(context.Background(), c, cluster)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://idm.identity.svc:443" {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, "https://idm.identity.svc:443")
	}
	if cfg.Username != "idm_admin" {
		t.Fatalf("Username = %q, want idm_admin", cfg.Username)
	}
	if cfg.Password != "s3cr3t" {
		t.Fatalf("Password = %q, want s3cr3t", cfg.Password)
	}
	if string(cfg.CACert) != "PEM" {
		t.Fatalf("CACert = %q, want PEM", cfg.CACert)
	}
	if cfg.Cluster != cluster {
		t.Fatalf("Cluster = %+v, want %+v", cfg.Cluster, cluster)
	}
}
