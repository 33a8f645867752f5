package person

import (
	"context"
	"fmt"
	"net/url"
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

// applyPerson implements spec §4.6 steps 2-3,5,7-8 for one
// KanidmPersonAccount: fetch-or-create the remote entity, converge its
// identity attributes and POSIX extension, then handle credential-reset
// token issuance last. Spec.Groups is not read. domain is the parent
// Kanidm cluster's public domain, used only to render the reset URL;
// an empty domain simply yields a token with no rendered URL.
func applyPerson(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, person *kaniopv1beta1.KanidmPersonAccount, domain string) error {
	name := remoteName(person)

	remote, err := kc.GetPerson(ctx, name)
	if err != nil {
		if kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
			return fmt.Errorf("getting person %q: %w", name, err)
		}
		if err := kc.CreatePerson(ctx, name, person.Spec.DisplayName); err != nil {
			return fmt.Errorf("creating person %q: %w", name, err)
		}
		remote = &kanidmclient.Person{Name: name}
	}

	if err := applyPersonAttrs(ctx, kc, name, remote, person); err != nil {
		return err
	}

	if person.Spec.Posix != nil {
		gid := person.Spec.Posix.GIDNumber
		if err := kc.UnixExtendPerson(ctx, name, gid, person.Spec.Posix.LoginShell); err != nil {
			return fmt.Errorf("extending person %q with posix attributes: %w", name, err)
		}
	}

	if err := applyPersonCredentialReset(ctx, k8s, kc, person, name, domain); err != nil {
		return err
	}

	return nil
}

// applyPersonAttrs converges displayname, mail, legalname and the
// account validity window via a single attribute patch. Unlike groups,
// the Kanidm person API has no attribute-specific setters, so all of
// these are folded into one PATCH (mirrors idm_person_account_update).
// mail is an ordered set (spec §4.6 step 8, head is primary); nil means
// unset (leave remote untouched), non-nil empty means explicit purge.
func applyPersonAttrs(ctx context.Context, kc *kanidmclient.Client, name string, remote *kanidmclient.Person, person *kaniopv1beta1.KanidmPersonAccount) error {
	attrs := map[string]any{}

	if person.Spec.DisplayName != "" && person.Spec.DisplayName != remote.DisplayName {
		attrs["displayname"] = []string{person.Spec.DisplayName}
	}
	if person.Spec.LegalName != "" && person.Spec.LegalName != remote.LegalName {
		attrs["legalname"] = []string{person.Spec.LegalName}
	}
	if person.Spec.Mail != nil && !mailEqual(remote.Mail, person.Spec.Mail) {
		attrs["mail"] = person.Spec.Mail
	}
	if person.Spec.AccountExpire != nil {
		if expire := person.Spec.AccountExpire.UTC().Format(time.RFC3339); expire != remote.AccountExpire {
			attrs["account_expire"] = expire
		}
	}
	if person.Spec.AccountValidFrom != nil {
		if validFrom := person.Spec.AccountValidFrom.UTC().Format(time.RFC3339); validFrom != remote.AccountValidFrom {
			attrs["account_valid_from"] = validFrom
		}
	}

	if len(attrs) == 0 {
		return nil
	}
	if err := kc.UpdatePerson(ctx, name, attrs); err != nil {
		return fmt.Errorf("updating person %q: %w", name, err)
	}
	return nil
}

func mailEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applyPersonCredentialReset implements spec §4.6 step 7: when
// CredentialResetTokenTTL is set and no currently-valid token is on
// record, request a new one, render the operator's public origin into
// the resulting URL, and record the token's expiry on status. The URL
// itself is not put on status; it is written only to the child Secret
// when one is named, and never to events or logs.
func applyPersonCredentialReset(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, person *kaniopv1beta1.KanidmPersonAccount, name, domain string) error {
	ttl := person.Spec.CredentialResetTokenTTL.Duration
	if ttl <= 0 {
		return nil
	}

	if person.Status.CredentialResetTokenExpiry != nil && person.Status.CredentialResetTokenExpiry.After(time.Now()) {
		return nil
	}

	token, err := kc.IssueCredentialResetToken(ctx, name, int64(ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("issuing credential reset token for person %q: %w", name, err)
	}

	expiry := metav1.NewTime(time.Now().Add(ttl))
	person.Status.CredentialResetTokenExpiry = &expiry

	resetURL := buildCredentialResetURL(domain, token)

	if person.Spec.CredentialResetSecretName == "" || resetURL == "" {
		return nil
	}
	return writeCredentialResetSecret(ctx, k8s, person, resetURL, expiry)
}

// buildCredentialResetURL renders the credential-update UI link a
// person uses to claim their reset token, matching the
// `/ui/reset?token=` route Kanidm's own web UI exposes. An empty domain
// yields an empty URL; the token is still valid and already recorded.
func buildCredentialResetURL(domain, token string) string {
	if domain == "" {
		return ""
	}
	u := url.URL{
		Scheme: "https",
		Host:   domain,
		Path:   "/ui/reset",
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// writeCredentialResetSecret materializes the current reset URL into
// the named child Secret (Get, then Create or Update), overwriting any
// previous rotation's value (spec §4.6 invariant: no earlier credential
// version is reachable through the Secret).
func writeCredentialResetSecret(ctx context.Context, k8s client.Client, person *kaniopv1beta1.KanidmPersonAccount, resetURL string, expiry metav1.Time) error {
	secret := &corev1.Secret{}
	secret.Name = person.Spec.CredentialResetSecretName
	secret.Namespace = person.Namespace
	secret.Type = corev1.SecretTypeOpaque
	secret.Data = map[string][]byte{
		"resetUrl": []byte(resetURL),
		"expiry":   []byte(expiry.UTC().Format(time.RFC3339)),
	}
	if err := controllerutil.SetControllerReference(person, secret, k8s.Scheme()); err != nil {
		return fmt.Errorf("setting controller reference on credential reset secret: %w", err)
	}

	existing := &corev1.Secret{}
	err := k8s.Get(ctx, types.NamespacedName{Namespace: secret.Namespace, Name: secret.Name}, existing)
	switch {
	case apierrors.IsNotFound(err):
		return k8s.Create(ctx, secret)
	case err != nil:
		return fmt.Errorf("getting credential reset secret %s/%s: %w", secret.Namespace, secret.Name, err)
	default:
		existing.Data = secret.Data
		return k8s.Update(ctx, existing)
	}
}
