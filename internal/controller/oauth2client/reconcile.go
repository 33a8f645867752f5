package oauth2client

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/constants"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
	"github.com/kaniop/kaniop/internal/kanidmclient"
	"github.com/kaniop/kaniop/internal/kanidmentity/diff"
	"github.com/kaniop/kaniop/internal/rotation"
)

// applyOAuth2Client implements spec §4.6 steps 2-6 for one
// KanidmOAuth2Client: fetch-or-create the remote registration, converge
// its identity attributes and redirect origins, then its scope maps
// before its claim maps (spec §4.6 step 4), then its boolean flags, and
// finally rotate the client secret of confidential clients.
func applyOAuth2Client(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, oauth2 *kaniopv1beta1.KanidmOAuth2Client) error {
	name := remoteName(oauth2)
	public := oauth2.Spec.ClientType == kaniopv1beta1.OAuth2ClientTypePublic

	remote, err := kc.GetOAuth2Client(ctx, name)
	if err != nil {
		if kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
			return fmt.Errorf("getting oauth2 client %q: %w", name, err)
		}
		if public {
			if err := kc.CreatePublicOAuth2Client(ctx, name, oauth2.Spec.DisplayName, oauth2.Spec.Origin); err != nil {
				return fmt.Errorf("creating public oauth2 client %q: %w", name, err)
			}
		} else {
			if err := kc.CreateBasicOAuth2Client(ctx, name, oauth2.Spec.DisplayName, oauth2.Spec.Origin); err != nil {
				return fmt.Errorf("creating basic oauth2 client %q: %w", name, err)
			}
		}
		remote = &kanidmclient.OAuth2Client{Name: name, DisplayName: oauth2.Spec.DisplayName, Origin: oauth2.Spec.Origin, Public: public}
	}

	if err := applyOAuth2Attrs(ctx, kc, name, remote, oauth2); err != nil {
		return err
	}

	if err := applyOAuth2RedirectOrigins(ctx, kc, name, remote.RedirectURL, oauth2.Spec.ExtraRedirectOrigins); err != nil {
		return err
	}

	if err := applyOAuth2ScopeMaps(ctx, kc, name, remote.ScopeMaps(), oauth2.Spec.ScopeMaps, false); err != nil {
		return err
	}
	if err := applyOAuth2ScopeMaps(ctx, kc, name, remote.SupScopeMaps(), oauth2.Spec.SupplementaryScopeMaps, true); err != nil {
		return err
	}
	if err := applyOAuth2ClaimMaps(ctx, kc, name, remote.ClaimMaps(), oauth2.Spec.ClaimMaps); err != nil {
		return err
	}

	if err := applyOAuth2Flags(ctx, kc, name, remote, oauth2, public); err != nil {
		return err
	}

	if !public {
		if err := rotateOAuth2ClientSecret(ctx, k8s, kc, oauth2, name); err != nil {
			return err
		}
	}

	return nil
}

func applyOAuth2Attrs(ctx context.Context, kc *kanidmclient.Client, name string, remote *kanidmclient.OAuth2Client, oauth2 *kaniopv1beta1.KanidmOAuth2Client) error {
	attrs := map[string]any{}
	if oauth2.Spec.DisplayName != "" && oauth2.Spec.DisplayName != remote.DisplayName {
		attrs["displayname"] = []string{oauth2.Spec.DisplayName}
	}
	if oauth2.Spec.Origin != "" && oauth2.Spec.Origin != remote.Origin {
		attrs["oauth2_rs_origin"] = []string{oauth2.Spec.Origin}
	}
	if len(attrs) == 0 {
		return nil
	}
	if err := kc.UpdateOAuth2Client(ctx, name, attrs); err != nil {
		return fmt.Errorf("updating oauth2 client %q: %w", name, err)
	}
	return nil
}

// applyOAuth2RedirectOrigins converges the unordered extra-redirect-
// origin set one entry at a time, since Kanidm only exposes
// add/remove-one primitives here (unlike the group membership and
// scope/claim map attributes).
func applyOAuth2RedirectOrigins(ctx context.Context, kc *kanidmclient.Client, name string, remote, desired []string) error {
	d := diff.Sets(remote, desired)
	for _, origin := range d.Add {
		if err := kc.AddOAuth2RedirectOrigin(ctx, name, origin); err != nil {
			return fmt.Errorf("adding redirect origin %q to oauth2 client %q: %w", origin, name, err)
		}
	}
	for _, origin := range d.Remove {
		if err := kc.RemoveOAuth2RedirectOrigin(ctx, name, origin); err != nil {
			return fmt.Errorf("removing redirect origin %q from oauth2 client %q: %w", origin, name, err)
		}
	}
	return nil
}

// scopeMapEntry pairs a scope map's resolved group name (as Kanidm
// knows it, used for the add/remove calls) with its scope list (used
// for equality); the diff key is the normalized group so a case or
// SPN-form difference between spec and remote doesn't look like a
// change.
type scopeMapEntry struct {
	group  string
	scopes []string
}

// applyOAuth2ScopeMaps diffs desired scope map entries against the
// remote's parsed, normalized scope maps (spec §4.6 step 5) and issues
// only the upserts and removals actually needed, mirroring the
// original's update_scope_map/update_sup_scope_map BTreeSet diffing.
func applyOAuth2ScopeMaps(ctx context.Context, kc *kanidmclient.Client, name string, remote []kanidmclient.ScopeMap, entries []kaniopv1beta1.OAuth2ScopeMapEntry, supplementary bool) error {
	current := make(map[string]scopeMapEntry, len(remote))
	for _, m := range remote {
		current[m.Group] = scopeMapEntry{group: m.Group, scopes: m.Scopes}
	}
	desired := make(map[string]scopeMapEntry, len(entries))
	for _, e := range entries {
		key := normalizeOAuth2Group(e.Group)
		scopes := append([]string(nil), e.Scopes...)
		sort.Strings(scopes)
		desired[key] = scopeMapEntry{group: e.Group, scopes: scopes}
	}

	d := diff.Maps(current, desired, func(a, b scopeMapEntry) bool {
		return diff.Equal(a.scopes, b.scopes)
	})

	for _, e := range d.Upsert {
		var err error
		if supplementary {
			err = kc.UpdateOAuth2SupScopeMap(ctx, name, e.group, e.scopes)
		} else {
			err = kc.UpdateOAuth2ScopeMap(ctx, name, e.group, e.scopes)
		}
		if err != nil {
			return fmt.Errorf("updating scope map for group %q on oauth2 client %q: %w", e.group, name, err)
		}
	}
	for _, key := range d.Remove {
		group := current[key].group
		var err error
		if supplementary {
			err = kc.DeleteOAuth2SupScopeMap(ctx, name, group)
		} else {
			err = kc.DeleteOAuth2ScopeMap(ctx, name, group)
		}
		if err != nil {
			return fmt.Errorf("removing scope map for group %q from oauth2 client %q: %w", group, name, err)
		}
	}
	return nil
}

// claimMapKey identifies a claim map entry by claim name plus
// normalized group, the composite key Kanidm addresses a claim map
// entry by.
type claimMapKey struct {
	claim string
	group string
}

type claimMapEntry struct {
	group  string
	values []string
}

func applyOAuth2ClaimMaps(ctx context.Context, kc *kanidmclient.Client, name string, remote []kanidmclient.ClaimMap, entries []kaniopv1beta1.OAuth2ClaimMapEntry) error {
	current := make(map[claimMapKey]claimMapEntry, len(remote))
	for _, m := range remote {
		current[claimMapKey{claim: m.Claim, group: m.Group}] = claimMapEntry{group: m.Group, values: m.Values}
	}
	desired := make(map[claimMapKey]claimMapEntry, len(entries))
	for _, e := range entries {
		values := append([]string(nil), e.Values...)
		sort.Strings(values)
		desired[claimMapKey{claim: e.Claim, group: normalizeOAuth2Group(e.Group)}] = claimMapEntry{group: e.Group, values: values}
	}

	d := diff.Maps(current, desired, func(a, b claimMapEntry) bool {
		return diff.Equal(a.values, b.values)
	})

	for key, e := range d.Upsert {
		if err := kc.UpdateOAuth2ClaimMap(ctx, name, key.claim, e.group, e.values); err != nil {
			return fmt.Errorf("updating claim map %q for group %q on oauth2 client %q: %w", key.claim, e.group, name, err)
		}
	}
	for _, key := range d.Remove {
		group := current[key].group
		if err := kc.DeleteOAuth2ClaimMap(ctx, name, key.claim, group); err != nil {
			return fmt.Errorf("removing claim map %q for group %q from oauth2 client %q: %w", key.claim, group, name, err)
		}
	}
	return nil
}

// normalizeOAuth2Group lower-cases a group reference so spec and
// remote group names compare equal regardless of case, mirroring the
// original's normalize_spn step before diffing a scope or claim map.
func normalizeOAuth2Group(group string) string {
	return strings.ToLower(group)
}

// applyOAuth2Flags converges the five boolean attributes via their
// idempotent set/clear endpoints, skipping any flag already matching
// remote state (spec §8: a converged client issues zero mutating
// calls). DisablePKCE is rejected for public clients (spec invariant):
// PKCE is mandatory there.
func applyOAuth2Flags(ctx context.Context, kc *kanidmclient.Client, name string, remote *kanidmclient.OAuth2Client, oauth2 *kaniopv1beta1.KanidmOAuth2Client, public bool) error {
	if public && oauth2.Spec.DisablePKCE {
		return kanioperrors.WrapInvalid(fmt.Errorf("oauth2 client %q: disablePkce is not permitted for public clients", name))
	}
	if oauth2.Spec.StrictRedirectURL != remote.StrictRedirectURL {
		if err := kc.SetOAuth2StrictRedirectURL(ctx, name, oauth2.Spec.StrictRedirectURL); err != nil {
			return fmt.Errorf("setting strictRedirectUrl on oauth2 client %q: %w", name, err)
		}
	}
	if !public && oauth2.Spec.DisablePKCE != remote.DisablePKCE {
		if err := kc.SetOAuth2DisablePKCE(ctx, name, oauth2.Spec.DisablePKCE); err != nil {
			return fmt.Errorf("setting disablePkce on oauth2 client %q: %w", name, err)
		}
	}
	if oauth2.Spec.PreferShortUsername != remote.PreferShortUsername {
		if err := kc.SetOAuth2PreferShortName(ctx, name, oauth2.Spec.PreferShortUsername); err != nil {
			return fmt.Errorf("setting preferShortUsername on oauth2 client %q: %w", name, err)
		}
	}
	if oauth2.Spec.AllowLocalhostRedirect != remote.AllowLocalhostRedirect {
		if err := kc.SetOAuth2AllowLocalhostRedirect(ctx, name, oauth2.Spec.AllowLocalhostRedirect); err != nil {
			return fmt.Errorf("setting allowLocalhostRedirect on oauth2 client %q: %w", name, err)
		}
	}
	if oauth2.Spec.LegacyCrypto != remote.LegacyCrypto {
		if err := kc.SetOAuth2LegacyCrypto(ctx, name, oauth2.Spec.LegacyCrypto); err != nil {
			return fmt.Errorf("setting legacyCrypto on oauth2 client %q: %w", name, err)
		}
	}
	return nil
}

// rotateOAuth2ClientSecret implements spec §4.6 step 6: rotate the
// child Secret when the remote secret has changed, a forceRotate
// annotation is present, or the rotation schedule is due. Old secret
// versions are never retained (spec invariant); the Secret's data is
// always overwritten in place, never versioned.
func rotateOAuth2ClientSecret(ctx context.Context, k8s client.Client, kc *kanidmclient.Client, oauth2 *kaniopv1beta1.KanidmOAuth2Client, name string) error {
	secretName := oauth2.Spec.ClientSecretSecretName
	if secretName == "" {
		secretName = name + "-oauth2"
	}

	existing := &corev1.Secret{}
	err := k8s.Get(ctx, types.NamespacedName{Namespace: oauth2.Namespace, Name: secretName}, existing)
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("getting oauth2 client secret %s/%s: %w", oauth2.Namespace, secretName, err)
	}
	exists := err == nil

	remoteSecret, err := kc.GetOAuth2ClientSecret(ctx, name)
	if err != nil {
		return fmt.Errorf("getting remote client secret for oauth2 client %q: %w", name, err)
	}

	_, forceRotate := oauth2.Annotations[constants.AnnotationForceRotate]

	var lastRotated time.Time
	if oauth2.Status.ClientSecretRotatedAt != nil {
		lastRotated = oauth2.Status.ClientSecretRotatedAt.Time
	}
	scheduledDue, err := rotation.Due(oauth2.Spec.RotationSchedule, lastRotated, time.Now())
	if err != nil {
		return kanioperrors.WrapInvalid(fmt.Errorf("oauth2 client %q: %w", name, err))
	}

	changed := !exists || string(existing.Data["clientSecret"]) != remoteSecret
	if !changed && !forceRotate && !scheduledDue {
		return nil
	}

	secret := &corev1.Secret{}
	secret.Name = secretName
	secret.Namespace = oauth2.Namespace
	secret.Type = corev1.SecretTypeOpaque
	secret.Data = map[string][]byte{
		"clientId":     []byte(name),
		"clientSecret": []byte(remoteSecret),
	}
	if err := controllerutil.SetControllerReference(oauth2, secret, k8s.Scheme()); err != nil {
		return fmt.Errorf("setting controller reference on oauth2 client secret: %w", err)
	}

	if exists {
		existing.Data = secret.Data
		if err := k8s.Update(ctx, existing); err != nil {
			return fmt.Errorf("updating oauth2 client secret %s/%s: %w", oauth2.Namespace, secretName, err)
		}
	} else {
		if err := k8s.Create(ctx, secret); err != nil {
			return fmt.Errorf("creating oauth2 client secret %s/%s: %w", oauth2.Namespace, secretName, err)
		}
	}

	now := metav1.NewTime(time.Now())
	oauth2.Status.ClientSecretRotatedAt = &now
	return nil
}
