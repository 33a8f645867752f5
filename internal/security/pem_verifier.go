package security

import (
	"crypto"
	"fmt"
	"time"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/sigstore/sigstore/pkg/signature"
)

// pemVerifier adapts a raw PEM-encoded public key into the
// root.TimeConstrainedVerifier interface sigstore-go's
// NewTrustedPublicKeyMaterial expects.
type pemVerifier struct {
	signature.Verifier
}

func newPEMVerifier(publicKeyPEM string) (*pemVerifier, error) {
	pubKey, err := cryptoutils.UnmarshalPEMToPublicKey([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling public key: %w", err)
	}

	verifier, err := signature.LoadVerifier(pubKey, crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("loading verifier: %w", err)
	}

	return &pemVerifier{Verifier: verifier}, nil
}

// ValidAtTime reports a pinned public key as valid at any time; Kaniop
// relies on the Kanidm image's own release cadence for key rotation, not
// on certificate validity windows the way Fulcio-issued keys would need.
func (v *pemVerifier) ValidAtTime(_ time.Time) bool {
	return true
}
