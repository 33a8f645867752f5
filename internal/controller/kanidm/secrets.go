package kanidm

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/constants"
)

const passwordBytes = 24

const (
	adminPasswordKey    = "admin-password"
	idmAdminPasswordKey = "idm_admin-password"
)

func adminSecretName(kanidm *kaniopv1beta1.Kanidm) string {
	return kanidm.Name + constants.SuffixAdminSecret
}

// generatePassword returns a random password with the same entropy and
// encoding the teacher's generateUnsealKey uses for its static unseal
// key: crypto/rand bytes, base64-std-encoded so the value is safe to
// embed directly as a Secret string value.
func generatePassword() (string, error) {
	raw := make([]byte, passwordBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EnsureAdminSecret bootstraps the admin/idm_admin credentials Secret
// (spec §4.5 step 2): it first Gets the Secret and returns early if it
// exists, and only when it is absent generates the passwords in memory
// and creates it, so an existing credential is never overwritten.
// Returns true the first time the Secret is actually created.
func EnsureAdminSecret(ctx context.Context, c client.Client, scheme *runtime.Scheme, kanidm *kaniopv1beta1.Kanidm) (created bool, err error) {
	name := adminSecretName(kanidm)

	existing := &corev1.Secret{}
	getErr := c.Get(ctx, types.NamespacedName{Namespace: kanidm.Namespace, Name: name}, existing)
	if getErr == nil {
		return false, nil
	}
	if !apierrors.IsNotFound(getErr) {
		return false, fmt.Errorf("getting admin secret %s/%s: %w", kanidm.Namespace, name, getErr)
	}

	adminPassword, err := generatePassword()
	if err != nil {
		return false, fmt.Errorf("generating admin password: %w", err)
	}
	idmAdminPassword, err := generatePassword()
	if err != nil {
		return false, fmt.Errorf("generating idm_admin password: %w", err)
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: kanidm.Namespace,
			Labels:    ownedObjectLabels(kanidm),
		},
		Type: corev1.SecretTypeOpaque,
		StringData: map[string]string{
			adminPasswordKey:    adminPassword,
			idmAdminPasswordKey: idmAdminPassword,
		},
	}
	if err := controllerutil.SetControllerReference(kanidm, secret, scheme); err != nil {
		return false, fmt.Errorf("setting owner reference on admin secret: %w", err)
	}

	if err := c.Create(ctx, secret); err != nil {
		if apierrors.IsAlreadyExists(err) {
			return false, nil
		}
		return false, fmt.Errorf("creating admin secret %s/%s: %w", kanidm.Namespace, name, err)
	}
	return true, nil
}

// ownedObjectLabels returns the label set applied to every object the
// Kanidm controller owns, following the common
// app.kubernetes.io/* convention plus the cluster-scoping label other
// controllers select on.
func ownedObjectLabels(kanidm *kaniopv1beta1.Kanidm) map[string]string {
	return map[string]string{
		constants.LabelAppName:      constants.LabelValueAppNameKanidm,
		constants.LabelAppInstance:  kanidm.Name,
		constants.LabelAppManagedBy: constants.LabelValueManagedByKaniop,
		constants.LabelKanidmCluster: kanidm.Name,
	}
}
