package serviceaccount

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
	"github.com/kaniop/kaniop/internal/kanidmclient"
)

// applyServiceAccount implements spec §4.6 steps 2-6 for one
// KanidmServiceAccount: fetch-or-create the remote entity, converge its
// identity attributes and POSIX extension, then issue and destroy API
// tokens on the write-once basis spec §4.6 step 6 and the CRD's own
// doc comments describe.
func applyServiceAccount(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, sa *kaniopv1beta1.KanidmServiceAccount) error {
	name := remoteName(sa)

	remote, err := kc.GetServiceAccount(ctx, name)
	if err != nil {
		if kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
			return fmt.Errorf("getting service account %q: %w", name, err)
		}
		if err := kc.CreateServiceAccount(ctx, name, sa.Spec.DisplayName); err != nil {
			return fmt.Errorf("creating service account %q: %w", name, err)
		}
		remote = &kanidmclient.ServiceAccount{Name: name, DisplayName: sa.Spec.DisplayName}
	}

	if err := applyServiceAccountAttrs(ctx, kc, name, remote, sa); err != nil {
		return err
	}

	if sa.Spec.Posix != nil {
		if err := kc.UnixExtendServiceAccount(ctx, name, sa.Spec.Posix.GIDNumber); err != nil {
			return fmt.Errorf("extending service account %q with posix attributes: %w", name, err)
		}
	}

	if err := reconcileAPITokens(ctx, k8s, kc, sa, name); err != nil {
		return err
	}

	if err := reconcilePasswordCredential(ctx, k8s, kc, sa, name); err != nil {
		return err
	}

	return nil
}

// reconcilePasswordCredential implements spec §3.1's `passwordGenerate`
// attribute: generating a password credential is a one-time,
// destructive action (it replaces any existing credential in Kanidm),
// so the operator only calls it the first time spec.passwordGenerate is
// true, tracked by status.credentialsSecretName the same write-once way
// reconcileAPITokens tracks issued tokens.
func reconcilePasswordCredential(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, sa *kaniopv1beta1.KanidmServiceAccount, name string) error {
	if !sa.Spec.PasswordGenerate || sa.Status.CredentialsSecretName != "" {
		return nil
	}

	password, err := kc.GenerateServiceAccountPassword(ctx, name)
	if err != nil {
		return fmt.Errorf("generating password credential for service account %q: %w", name, err)
	}

	secretName := name + "-kanidm-service-account-credentials"
	secret := &corev1.Secret{}
	secret.Name = secretName
	secret.Namespace = sa.Namespace
	secret.Type = corev1.SecretTypeOpaque
	secret.Data = map[string][]byte{"password": []byte(password)}
	if err := controllerutil.SetControllerReference(sa, secret, k8s.Scheme()); err != nil {
		return fmt.Errorf("setting controller reference on service account credentials secret: %w", err)
	}
	if err := k8s.Create(ctx, secret); err != nil {
		return fmt.Errorf("creating service account credentials secret %s/%s: %w", sa.Namespace, secretName, err)
	}

	sa.Status.CredentialsSecretName = secretName
	return nil
}

func applyServiceAccountAttrs(ctx context.Context, kc *kanidmclient.Client, name string, remote *kanidmclient.ServiceAccount, sa *kaniopv1beta1.KanidmServiceAccount) error {
	attrs := map[string]any{}
	if sa.Spec.DisplayName != "" && sa.Spec.DisplayName != remote.DisplayName {
		attrs["displayname"] = []string{sa.Spec.DisplayName}
	}
	if sa.Spec.EntryManagedBy != "" && sa.Spec.EntryManagedBy != remote.EntryManagedBy {
		attrs["entry_managed_by"] = []string{sa.Spec.EntryManagedBy}
	}
	if len(attrs) == 0 {
		return nil
	}
	if err := kc.UpdateServiceAccount(ctx, name, attrs); err != nil {
		return fmt.Errorf("updating service account %q: %w", name, err)
	}
	return nil
}

// reconcileAPITokens implements the write-once/destroy-then-reissue API
// token lifecycle: an entry in Spec.APITokens with no matching
// status.IssuedTokens record (by Label) is issued fresh; an issued
// token whose Label no longer appears in spec is destroyed; an issued
// token whose spec hash changed is destroyed and reissued in the same
// pass, since Kanidm API tokens cannot be mutated in place.
func reconcileAPITokens(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, sa *kaniopv1beta1.KanidmServiceAccount, name string) error {
	desired := make(map[string]kaniopv1beta1.ServiceAccountAPIToken, len(sa.Spec.APITokens))
	for _, t := range sa.Spec.APITokens {
		desired[t.Label] = t
	}

	issued := make(map[string]kaniopv1beta1.IssuedAPIToken, len(sa.Status.IssuedTokens))
	for _, t := range sa.Status.IssuedTokens {
		issued[t.Label] = t
	}

	var next []kaniopv1beta1.IssuedAPIToken

	for label, record := range issued {
		if _, stillDesired := desired[label]; stillDesired {
			continue
		}
		if err := destroyAPIToken(ctx, k8s, kc, sa, name, record); err != nil {
			return err
		}
	}

	for label, spec := range desired {
		record, alreadyIssued := issued[label]
		hash := hashAPITokenSpec(spec)
		if alreadyIssued && record.SpecHash == hash {
			next = append(next, record)
			continue
		}
		if alreadyIssued {
			if err := destroyAPIToken(ctx, k8s, kc, sa, name, record); err != nil {
				return err
			}
		}
		issuedRecord, err := issueAPIToken(ctx, k8s, kc, sa, name, spec, hash)
		if err != nil {
			return err
		}
		next = append(next, *issuedRecord)
	}

	sa.Status.IssuedTokens = next
	return nil
}

func hashAPITokenSpec(spec kaniopv1beta1.ServiceAccountAPIToken) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%t|", spec.Label, spec.ReadWrite)
	if spec.ExpiresAt != nil {
		fmt.Fprint(h, spec.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func issueAPIToken(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, sa *kaniopv1beta1.KanidmServiceAccount, name string, spec kaniopv1beta1.ServiceAccountAPIToken, hash string) (*kaniopv1beta1.IssuedAPIToken, error) {
	var expiry *int64
	if spec.ExpiresAt != nil {
		e := spec.ExpiresAt.Unix()
		expiry = &e
	}
	token, err := kc.GenerateAPIToken(ctx, name, spec.Label, expiry, spec.ReadWrite)
	if err != nil {
		return nil, fmt.Errorf("generating api token %q for service account %q: %w", spec.Label, name, err)
	}

	secretName := spec.SecretName
	if secretName == "" {
		secretName = name + "-" + spec.Label + "-token"
	}
	if err := writeAPITokenSecret(ctx, k8s, sa, secretName, token.Token); err != nil {
		return nil, err
	}

	return &kaniopv1beta1.IssuedAPIToken{
		Label:    spec.Label,
		TokenID:  token.TokenID,
		IssuedAt: metav1.NewTime(time.Now()),
		SpecHash: hash,
	}, nil
}

func destroyAPIToken(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, sa *kaniopv1beta1.KanidmServiceAccount, name string, record kaniopv1beta1.IssuedAPIToken) error {
	err := kc.DestroyAPIToken(ctx, name, record.TokenID)
	if err != nil && kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
		return fmt.Errorf("destroying api token %q for service account %q: %w", record.Label, name, err)
	}

	secretName := record.Label
	for _, t := range sa.Spec.APITokens {
		if t.Label == record.Label && t.SecretName != "" {
			secretName = t.SecretName
		}
	}
	if secretName == record.Label {
		secretName = name + "-" + record.Label + "-token"
	}
	secret := &corev1.Secret{}
	getErr := k8s.Get(ctx, types.NamespacedName{Namespace: sa.Namespace, Name: secretName}, secret)
	if apierrors.IsNotFound(getErr) {
		return nil
	}
	if getErr != nil {
		return fmt.Errorf("getting api token secret %s/%s: %w", sa.Namespace, secretName, getErr)
	}
	if err := k8s.Delete(ctx, secret); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("deleting api token secret %s/%s: %w", sa.Namespace, secretName, err)
	}
	return nil
}

func writeAPITokenSecret(ctx context.Context, k8s client.Client, sa *kaniopv1beta1.KanidmServiceAccount, secretName, token string) error {
	secret := &corev1.Secret{}
	secret.Name = secretName
	secret.Namespace = sa.Namespace
	secret.Type = corev1.SecretTypeOpaque
	secret.Data = map[string][]byte{"token": []byte(token)}
	if err := controllerutil.SetControllerReference(sa, secret, k8s.Scheme()); err != nil {
		return fmt.Errorf("setting controller reference on api token secret: %w", err)
	}

	existing := &corev1.Secret{}
	err := k8s.Get(ctx, types.NamespacedName{Namespace: secret.Namespace, Name: secret.Name}, existing)
	switch {
	case apierrors.IsNotFound(err):
		return k8s.Create(ctx, secret)
	case err != nil:
		return fmt.Errorf("getting api token secret %s/%s: %w", secret.Namespace, secret.Name, err)
	default:
		existing.Data = secret.Data
		return k8s.Update(ctx, existing)
	}
}
