package kanidmentity

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
	"github.com/kaniop/kaniop/internal/kanidmclient"
)

const (
	adminPasswordKey    = "idm_admin-password"
	caSecretSuffix      = "-tls-ca"
	adminSecretSuffix   = "-admin"
	caCertKey           = "ca.crt"
)

// ResolveClusterIdentity turns a KanidmRef into the (namespace, name)
// ClusterIdentity spec §3.2 defines, normalizing an empty Namespace to
// the referencing entity's own namespace. allowCrossNamespace is false
// for every entity kind except KanidmOAuth2Client (spec §4.6 step 1).
func ResolveClusterIdentity(ref kaniopv1beta1.KanidmRef, entityNamespace string, allowCrossNamespace bool) (kanidmclient.ClusterIdentity, error) {
	namespace := ref.Namespace
	if namespace == "" {
		namespace = entityNamespace
	}
	if namespace != entityNamespace && !allowCrossNamespace {
		return kanidmclient.ClusterIdentity{}, kanioperrors.WrapInvalid(
			fmt.Errorf("kanidmRef namespace %q differs from this resource's namespace %q, which is only permitted for KanidmOAuth2Client", namespace, entityNamespace),
		)
	}
	return kanidmclient.ClusterIdentity{Namespace: namespace, Name: ref.Name}, nil
}

// ResolveClientConfig builds the kanidmclient.ClientConfig needed to
// authenticate against cluster's kanidmd, reading the cluster's own
// Kanidm CR (to find its in-cluster Service name) plus its idm_admin
// bootstrap Secret and CA certificate Secret (both owned by the Kanidm
// Cluster Controller, spec §4.5 steps 2-3). This is the function every
// identity-entity controller passes to kanidmclient.New as its resolve
// callback (spec §4.4 "resolve fetches the current ClientConfig").
func ResolveClientConfig(ctx context.Context, c client.Client, cluster kanidmclient.ClusterIdentity) (kanidmclient.ClientConfig, error) {
	kanidm := &kaniopv1beta1.Kanidm{}
	if err := c.Get(ctx, types.NamespacedName{Namespace: cluster.Namespace, Name: cluster.Name}, kanidm); err != nil {
		if apierrors.IsNotFound(err) {
			return kanidmclient.ClientConfig{}, kanioperrors.WrapNotFound(fmt.Errorf("kanidm cluster %s not found: %w", cluster, err))
		}
		return kanidmclient.ClientConfig{}, fmt.Errorf("getting kanidm cluster %s: %w", cluster, err)
	}

	adminSecret := &corev1.Secret{}
	adminName := cluster.Name + adminSecretSuffix
	if err := c.Get(ctx, types.NamespacedName{Namespace: cluster.Namespace, Name: adminName}, adminSecret); err != nil {
		if apierrors.IsNotFound(err) {
			return kanidmclient.ClientConfig{}, kanioperrors.WrapNotFound(fmt.Errorf("admin secret %s/%s not found: %w", cluster.Namespace, adminName, err))
		}
		return kanidmclient.ClientConfig{}, fmt.Errorf("getting admin secret %s/%s: %w", cluster.Namespace, adminName, err)
	}

	caSecret := &corev1.Secret{}
	caName := cluster.Name + caSecretSuffix
	if err := c.Get(ctx, types.NamespacedName{Namespace: cluster.Namespace, Name: caName}, caSecret); err != nil {
		if apierrors.IsNotFound(err) {
			return kanidmclient.ClientConfig{}, kanioperrors.WrapNotFound(fmt.Errorf("ca secret %s/%s not found: %w", cluster.Namespace, caName, err))
		}
		return kanidmclient.ClientConfig{}, fmt.Errorf("getting ca secret %s/%s: %w", cluster.Namespace, caName, err)
	}

	return kanidmclient.ClientConfig{
		Cluster:  cluster,
		BaseURL:  fmt.Sprintf("https://%s.%s.svc:443", cluster.Name, cluster.Namespace),
		CACert:   caSecret.Data[caCertKey],
		Username: "idm_admin",
		Password: string(adminSecret.Data[adminPasswordKey]),
	}, nil
}
