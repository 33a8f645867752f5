package security

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func TestVerifyRequiresPublicKey(t *testing.T) {
	verifier := NewImageVerifier(logr.Discard(), fake.NewClientBuilder().Build())

	if _, err := verifier.Verify(context.Background(), "kanidm/kanidmd:latest", "", nil, "identity"); err == nil {
		t.Fatal("expected error when publicKey is empty")
	}
}

func TestVerificationCache(t *testing.T) {
	c := newVerificationCache()

	if c.isVerified("repo@sha256:abc", "key-1") {
		t.Fatal("expected cache to start empty")
	}

	c.markVerified("repo@sha256:abc", "key-1")

	if !c.isVerified("repo@sha256:abc", "key-1") {
		t.Fatal("expected cache hit after markVerified")
	}
	if c.isVerified("repo@sha256:abc", "key-2") {
		t.Fatal("expected cache miss for a different public key")
	}
}

func TestBuildKeychainMergesDockerConfigSecrets(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "registry-creds", Namespace: "identity"},
		Type:       corev1.SecretTypeDockerConfigJson,
		Data: map[string][]byte{
			corev1.DockerConfigJsonKey: mustMarshal(t, map[string]any{
				"auths": map[string]any{
					"ghcr.io": map[string]string{"username": "bot", "password": "secret"},
				},
			}),
		},
	}

	c := fake.NewClientBuilder().WithObjects(secret).Build()
	verifier := NewImageVerifier(logr.Discard(), c)

	keychain, err := verifier.buildKeychain(context.Background(), []corev1.LocalObjectReference{{Name: "registry-creds"}}, "identity")
	if err != nil {
		t.Fatalf("buildKeychain() error = %v", err)
	}
	if keychain == nil {
		t.Fatal("expected a non-nil keychain")
	}
}

func TestBuildKeychainRejectsUnsupportedSecretType(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "wrong-type", Namespace: "identity"},
		Type:       corev1.SecretTypeOpaque,
	}

	c := fake.NewClientBuilder().WithObjects(secret).Build()
	verifier := NewImageVerifier(logr.Discard(), c)

	if _, err := verifier.buildKeychain(context.Background(), []corev1.LocalObjectReference{{Name: "wrong-type"}}, "identity"); err == nil {
		t.Fatal("expected error for unsupported secret type")
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling test fixture: %v", err)
	}
	return data
}
