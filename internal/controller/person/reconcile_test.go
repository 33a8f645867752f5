package person

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/kanidmclient"
)

type personServer struct {
	remote          kanidmclient.Person
	created         bool
	patchedAttrs    map[string]any
	unixExtended    bool
	issuedTokenName string
}

func newPersonServer(remote kanidmclient.Person) *personServer {
	return &personServer{remote: remote}
}

func (s *personServer) start() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KANIDM-AUTH-SESSION-ID", "session-token")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state":     map[string]any{"success": "ok"},
			"sessionid": "session-token",
		})
	})
	mux.HandleFunc("/v1/person", func(w http.ResponseWriter, r *http.Request) {
		s.created = true
	})
	mux.HandleFunc("/v1/person/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/person/existing", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(s.remote)
		case http.MethodPatch:
			var body struct {
				Attrs map[string]any `json:"attrs"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.patchedAttrs = body.Attrs
		}
	})
	mux.HandleFunc("/v1/person/existing/_unix", func(w http.ResponseWriter, r *http.Request) {
		s.unixExtended = true
	})
	mux.HandleFunc("/v1/person/existing/_credential/_update_intent", func(w http.ResponseWriter, r *http.Request) {
		s.issuedTokenName = "existing"
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "reset-token-123"})
	})
	return httptest.NewServer(mux)
}

func testPool(server *httptest.Server) (*kanidmclient.Pool, kanidmclient.ClusterIdentity) {
	cluster := kanidmclient.ClusterIdentity{Namespace: "identity", Name: "idm"}
	pool := kanidmclient.New(func(ctx context.Context, c kanidmclient.ClusterIdentity) (kanidmclient.ClientConfig, error) {
		return kanidmclient.ClientConfig{
			Cluster:  c,
			BaseURL:  server.URL,
			Username: "idm_admin",
			Password: "hunter2",
		}, nil
	})
	return pool, cluster
}

func testScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	_ = kaniopv1beta1.AddToScheme(scheme)
	return scheme
}

func TestApplyPersonCreatesMissingPerson(t *testing.T) {
	srv := newPersonServer(kanidmclient.Person{})
	server := srv.start()
	defer server.Close()
	pool, cluster := testPool(server)
	k8sClient := fake.NewClientBuilder().WithScheme(testScheme()).Build()

	p := &kaniopv1beta1.KanidmPersonAccount{
		Spec: kaniopv1beta1.KanidmPersonAccountSpec{Name: "missing", DisplayName: "Missing Person"},
	}

	err := pool.WithSession(context.Background(), cluster, func(ctx context.Context, kc *kanidmclient.Client) error {
		return applyPerson(ctx, k8sClient, kc, p, "idm.example.com")
	})
	require.NoError(t, err)
	assert.True(t, srv.created)
}

func TestApplyPersonUpdatesAttrs(t *testing.T) {
	srv := newPersonServer(kanidmclient.Person{
		Name:        "existing",
		DisplayName: "Old Name",
		Mail:        []string{"old@example.com"},
	})
	server := srv.start()
	defer server.Close()
	pool, cluster := testPool(server)
	k8sClient := fake.NewClientBuilder().WithScheme(testScheme()).Build()

	p := &kaniopv1beta1.KanidmPersonAccount{
		Spec: kaniopv1beta1.KanidmPersonAccountSpec{
			Name:        "existing",
			DisplayName: "New Name",
			LegalName:   "Legal Name",
			Mail:        []string{"new@example.com"},
		},
	}

	err := pool.WithSession(context.Background(), cluster, func(ctx context.Context, kc *kanidmclient.Client) error {
		return applyPerson(ctx, k8sClient, kc, p, "idm.example.com")
	})
	require.NoError(t, err)
	require.NotNil(t, srv.patchedAttrs)
	assert.Equal(t, []any{"New Name"}, srv.patchedAttrs["displayname"])
	assert.Equal(t, []any{"Legal Name"}, srv.patchedAttrs["legalname"])
}

func TestApplyPersonSkipsUpdateWhenUnchanged(t *testing.T) {
	srv := newPersonServer(kanidmclient.Person{
		Name:        "existing",
		DisplayName: "Same Name",
	})
	server := srv.start()
	defer server.Close()
	pool, cluster := testPool(server)
	k8sClient := fake.NewClientBuilder().WithScheme(testScheme()).Build()

	p := &kaniopv1beta1.KanidmPersonAccount{
		Spec: kaniopv1beta1.KanidmPersonAccountSpec{
			Name:        "existing",
			DisplayName: "Same Name",
		},
	}

	err := pool.WithSession(context.Background(), cluster, func(ctx context.Context, kc *kanidmclient.Client) error {
		return applyPerson(ctx, k8sClient, kc, p, "idm.example.com")
	})
	require.NoError(t, err)
	assert.Nil(t, srv.patchedAttrs)
}

func TestApplyPersonSkipsUpdateWhenAccountValidityUnchanged(t *testing.T) {
	expire := metav1.NewTime(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	validFrom := metav1.NewTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	srv := newPersonServer(kanidmclient.Person{
		Name:             "existing",
		DisplayName:      "Same Name",
		AccountExpire:    expire.UTC().Format(time.RFC3339),
		AccountValidFrom: validFrom.UTC().Format(time.RFC3339),
	})
	server := srv.start()
	defer server.Close()
	pool, cluster := testPool(server)
	k8sClient := fake.NewClientBuilder().WithScheme(testScheme()).Build()

	p := &kaniopv1beta1.KanidmPersonAccount{
		Spec: kaniopv1beta1.KanidmPersonAccountSpec{
			Name:             "existing",
			DisplayName:      "Same Name",
			AccountExpire:    &expire,
			AccountValidFrom: &validFrom,
		},
	}

	err := pool.WithSession(context.Background(), cluster, func(ctx context.Context, kc *kanidmclient.Client) error {
		return applyPerson(ctx, k8sClient, kc, p, "idm.example.com")
	})
	require.NoError(t, err)
	assert.Nil(t, srv.patchedAttrs)
}

func TestApplyPersonUnixExtendsWhenPosixSet(t *testing.T) {
	gid := int64(5000)
	srv := newPersonServer(kanidmclient.Person{Name: "existing"})
	server := srv.start()
	defer server.Close()
	pool, cluster := testPool(server)
	k8sClient := fake.NewClientBuilder().WithScheme(testScheme()).Build()

	p := &kaniopv1beta1.KanidmPersonAccount{
		Spec: kaniopv1beta1.KanidmPersonAccountSpec{
			Name: "existing",
			Posix: &kaniopv1beta1.PersonPosixAttributes{
				PosixAttributes: kaniopv1beta1.PosixAttributes{GIDNumber: &gid},
				LoginShell:      "/bin/bash",
			},
		},
	}

	err := pool.WithSession(context.Background(), cluster, func(ctx context.Context, kc *kanidmclient.Client) error {
		return applyPerson(ctx, k8sClient, kc, p, "idm.example.com")
	})
	require.NoError(t, err)
	assert.True(t, srv.unixExtended)
}

func TestApplyPersonIssuesCredentialResetAndWritesSecret(t *testing.T) {
	srv := newPersonServer(kanidmclient.Person{Name: "existing"})
	server := srv.start()
	defer server.Close()
	pool, cluster := testPool(server)
	k8sClient := fake.NewClientBuilder().WithScheme(testScheme()).Build()

	p := &kaniopv1beta1.KanidmPersonAccount{
		ObjectMeta: metav1.ObjectMeta{Name: "existing", Namespace: "identity"},
		Spec: kaniopv1beta1.KanidmPersonAccountSpec{
			Name:                      "existing",
			CredentialResetTokenTTL:   metav1.Duration{Duration: time.Hour},
			CredentialResetSecretName: "existing-reset",
		},
	}

	err := pool.WithSession(context.Background(), cluster, func(ctx context.Context, kc *kanidmclient.Client) error {
		return applyPerson(ctx, k8sClient, kc, p, "idm.example.com")
	})
	require.NoError(t, err)
	assert.Equal(t, "existing", srv.issuedTokenName)
	require.NotNil(t, p.Status.CredentialResetTokenExpiry)

	secret := &corev1.Secret{}
	require.NoError(t, k8sClient.Get(context.Background(), types.NamespacedName{Namespace: "identity", Name: "existing-reset"}, secret))
	assert.Contains(t, string(secret.Data["resetUrl"]), "token=reset-token-123")
	assert.Contains(t, string(secret.Data["resetUrl"]), "idm.example.com")
}

func TestApplyPersonSkipsCredentialResetWhenTokenStillValid(t *testing.T) {
	srv := newPersonServer(kanidmclient.Person{Name: "existing"})
	server := srv.start()
	defer server.Close()
	pool, cluster := testPool(server)
	k8sClient := fake.NewClientBuilder().WithScheme(testScheme()).Build()

	future := metav1.NewTime(time.Now().Add(time.Hour))
	p := &kaniopv1beta1.KanidmPersonAccount{
		ObjectMeta: metav1.ObjectMeta{Name: "existing", Namespace: "identity"},
		Spec: kaniopv1beta1.KanidmPersonAccountSpec{
			Name:                    "existing",
			CredentialResetTokenTTL: metav1.Duration{Duration: time.Hour},
		},
		Status: kaniopv1beta1.KanidmPersonAccountStatus{CredentialResetTokenExpiry: &future},
	}

	err := pool.WithSession(context.Background(), cluster, func(ctx context.Context, kc *kanidmclient.Client) error {
		return applyPerson(ctx, k8sClient, kc, p, "idm.example.com")
	})
	require.NoError(t, err)
	assert.Empty(t, srv.issuedTokenName)
}
