// Package security verifies the optional Sigstore signature on a Kanidm
// image before the operator rolls it out (spec §4.5 step 6,
// Kanidm.spec.imageVerification.publicKey), condensed from the teacher's
// cosign-based ImageVerifier down to sigstore-go's lighter
// pinned-public-key verifier: Kaniop never needs Fulcio/keyless identity
// checks or Rekor transparency-log lookups, only "does this image carry a
// valid signature for this exact public key".
package security

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	ggcrv1 "github.com/google/go-containerregistry/pkg/v1"
	ggcrremote "github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/verify"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ImageVerifier checks a Kanidm image against a pinned PEM-encoded public
// key, caching successful verifications by resolved digest so repeated
// reconciles of an unchanged image don't re-fetch and re-verify.
type ImageVerifier struct {
	logger logr.Logger
	client client.Client
	cache  *verificationCache
}

// NewImageVerifier constructs an ImageVerifier. client is used only to
// read ImagePullSecrets for private-registry authentication.
func NewImageVerifier(logger logr.Logger, c client.Client) *ImageVerifier {
	return &ImageVerifier{logger: logger, client: c, cache: newVerificationCache()}
}

// Verify resolves imageRef to a digest, confirms it carries a Sigstore
// bundle signed by publicKey, and returns the digest-pinned reference
// (e.g. "ghcr.io/kanidm/kanidmd@sha256:abc...") so the caller can pin the
// StatefulSet to the exact verified artifact instead of a mutable tag.
func (v *ImageVerifier) Verify(ctx context.Context, imageRef, publicKey string, imagePullSecrets []corev1.LocalObjectReference, namespace string) (string, error) {
	if publicKey == "" {
		return "", fmt.Errorf("public key is required for image verification")
	}

	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return "", fmt.Errorf("parsing image reference %q: %w", imageRef, err)
	}

	var opts []ggcrremote.Option
	if len(imagePullSecrets) > 0 && v.client != nil {
		keychain, err := v.buildKeychain(ctx, imagePullSecrets, namespace)
		if err != nil {
			return "", fmt.Errorf("building keychain for image pull secrets: %w", err)
		}
		if keychain != nil {
			opts = append(opts, ggcrremote.WithAuthFromKeychain(keychain))
		}
	}

	desc, err := ggcrremote.Head(ref, opts...)
	if err != nil {
		return "", fmt.Errorf("resolving digest for %q: %w", imageRef, err)
	}
	digestRef := fmt.Sprintf("%s@%s", ref.Context().Name(), desc.Digest.String())

	if v.cache.isVerified(digestRef, publicKey) {
		v.logger.V(1).Info("image verification cache hit", "digest", digestRef)
		return digestRef, nil
	}

	sigBundle, err := fetchSignatureBundle(ref, desc, opts...)
	if err != nil {
		return "", fmt.Errorf("fetching signature bundle for %q: %w", imageRef, err)
	}

	trustedMaterial := root.NewTrustedPublicKeyMaterial(func(string) (root.TimeConstrainedVerifier, error) {
		return newPEMVerifier(publicKey)
	})

	sev, err := verify.NewVerifier(trustedMaterial, verify.WithSignedTimestamps(1))
	if err != nil {
		return "", fmt.Errorf("constructing signature verifier: %w", err)
	}

	digestBytes := sha256.Sum256([]byte(desc.Digest.String()))
	policy := verify.NewPolicy(
		verify.WithArtifactDigest("sha256", digestBytes[:]),
		verify.WithoutIdentitiesUnsafe(),
	)

	if _, err := sev.Verify(sigBundle, policy); err != nil {
		return "", fmt.Errorf("signature verification failed for %q: %w", imageRef, err)
	}

	v.cache.markVerified(digestRef, publicKey)
	v.logger.Info("image verification succeeded", "image", imageRef, "digest", digestRef)
	return digestRef, nil
}

// fetchSignatureBundle retrieves the Sigstore bundle attached to desc via
// the OCI 1.1 referrers API, the way Kanidm release images publish their
// detached signatures.
func fetchSignatureBundle(ref name.Reference, desc *ggcrv1.Descriptor, opts ...ggcrremote.Option) (*bundle.Bundle, error) {
	digestRef, err := name.NewDigest(fmt.Sprintf("%s@%s", ref.Context().Name(), desc.Digest.String()))
	if err != nil {
		return nil, fmt.Errorf("building digest reference: %w", err)
	}

	referrers, err := ggcrremote.Referrers(digestRef, opts...)
	if err != nil {
		return nil, fmt.Errorf("listing referrers for %s: %w", digestRef, err)
	}

	manifest, err := referrers.IndexManifest()
	if err != nil {
		return nil, fmt.Errorf("reading referrers index: %w", err)
	}

	for _, m := range manifest.Manifests {
		if m.ArtifactType != "application/vnd.dev.sigstore.bundle+json" {
			continue
		}
		layerRef := ref.Context().Digest(m.Digest.String())
		layer, err := ggcrremote.Layer(layerRef, opts...)
		if err != nil {
			return nil, fmt.Errorf("fetching signature bundle layer: %w", err)
		}
		rc, err := layer.Uncompressed()
		if err != nil {
			return nil, fmt.Errorf("reading signature bundle layer: %w", err)
		}
		defer rc.Close()

		var b bundle.Bundle
		if err := json.NewDecoder(rc).Decode(&b); err != nil {
			return nil, fmt.Errorf("decoding signature bundle: %w", err)
		}
		return &b, nil
	}

	return nil, fmt.Errorf("no Sigstore bundle referrer found for %s", digestRef)
}

// buildKeychain reassembles ImagePullSecrets into a docker-config-backed
// keychain, grounded on the teacher's ImageVerifier.buildKeychain, kept
// unchanged: reading and merging dockerconfigjson Secrets has nothing
// Kanidm-specific about it.
func (v *ImageVerifier) buildKeychain(ctx context.Context, imagePullSecrets []corev1.LocalObjectReference, namespace string) (authn.Keychain, error) {
	type dockerConfig struct {
		Auths map[string]dockerAuthConfig `json:"auths"`
	}

	combined := dockerConfig{Auths: make(map[string]dockerAuthConfig)}

	for _, secretRef := range imagePullSecrets {
		secret := &corev1.Secret{}
		if err := v.client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: secretRef.Name}, secret); err != nil {
			return nil, fmt.Errorf("getting image pull secret %s/%s: %w", namespace, secretRef.Name, err)
		}

		var key string
		switch secret.Type {
		case corev1.SecretTypeDockerConfigJson:
			key = corev1.DockerConfigJsonKey
		case corev1.SecretTypeDockercfg:
			key = corev1.DockerConfigKey
		default:
			return nil, fmt.Errorf("image pull secret %s/%s has unsupported type %s", namespace, secretRef.Name, secret.Type)
		}

		data, ok := secret.Data[key]
		if !ok {
			return nil, fmt.Errorf("image pull secret %s/%s missing key %s", namespace, secretRef.Name, key)
		}

		var parsed dockerConfig
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing docker config from %s/%s: %w", namespace, secretRef.Name, err)
		}
		for registry, auth := range parsed.Auths {
			combined.Auths[registry] = auth
		}
	}

	if len(combined.Auths) == 0 {
		return nil, nil
	}
	return &dockerConfigKeychain{auths: combined.Auths}, nil
}

type dockerAuthConfig struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Auth     string `json:"auth,omitempty"`
}

type dockerConfigKeychain struct {
	auths map[string]dockerAuthConfig
}

func (k *dockerConfigKeychain) Resolve(resource authn.Resource) (authn.Authenticator, error) {
	if auth, ok := k.auths[resource.RegistryStr()]; ok && auth.Username != "" {
		return &authn.Basic{Username: auth.Username, Password: auth.Password}, nil
	}
	return authn.Anonymous, nil
}

type verificationCache struct {
	mu    sync.RWMutex
	cache map[string]struct{}
}

func newVerificationCache() *verificationCache {
	return &verificationCache{cache: make(map[string]struct{})}
}

func (c *verificationCache) isVerified(digest, publicKey string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[cacheKey(digest, publicKey)]
	return ok
}

func (c *verificationCache) markVerified(digest, publicKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[cacheKey(digest, publicKey)] = struct{}{}
}

func cacheKey(digest, publicKey string) string {
	sum := sha256.Sum256([]byte(publicKey))
	return fmt.Sprintf("%s@%x", digest, sum[:8])
}
