package security

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

// VerifyImageForKanidm verifies imageRef against kanidm's
// spec.imageVerification.publicKey when set, returning the digest-pinned
// reference to roll out. When image verification is not configured, it
// returns imageRef unchanged and a nil error.
func VerifyImageForKanidm(ctx context.Context, logger logr.Logger, c client.Client, kanidm *kaniopv1beta1.Kanidm, imageRef string) (string, error) {
	if kanidm.Spec.ImageVerification == nil || kanidm.Spec.ImageVerification.PublicKey == "" {
		return imageRef, nil
	}
	if imageRef == "" {
		return "", fmt.Errorf("image reference is required")
	}

	verifier := NewImageVerifier(logger, c)
	return verifier.Verify(ctx, imageRef, kanidm.Spec.ImageVerification.PublicKey, nil, kanidm.Namespace)
}
