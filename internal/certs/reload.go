package certs

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

// tlsCertHashAnnotation is set on every owned StatefulSet's pod template
// whenever the server certificate changes. Kanidm has no in-process
// SIGHUP reload, so a changed pod template annotation is what actually
// gets the new certificate picked up: it triggers the StatefulSet's
// normal rolling restart of its pods.
const tlsCertHashAnnotation = "kaniop.rs/tls-cert-hash"

// KubernetesReloadSignaler implements ReloadSignaler by annotating every
// replica group's StatefulSet pod template with the active certificate
// hash, adapted from the teacher's per-Pod annotation signal to a
// per-StatefulSet one since Kaniop's reload mechanism is a rolling
// restart rather than an in-pod sidecar watching for SIGHUP.
type KubernetesReloadSignaler struct {
	client client.Client
}

// NewKubernetesReloadSignaler creates a KubernetesReloadSignaler.
func NewKubernetesReloadSignaler(c client.Client) *KubernetesReloadSignaler {
	return &KubernetesReloadSignaler{client: c}
}

// SignalReload annotates every StatefulSet owned by kanidm's replica
// groups with certHash, causing Kubernetes to roll pods whose template
// changed. StatefulSets already carrying certHash are left untouched so
// unrelated reconciles do not trigger spurious restarts.
func (k *KubernetesReloadSignaler) SignalReload(ctx context.Context, logger logr.Logger, kanidm *kaniopv1beta1.Kanidm, certHash string) error {
	stsList := &appsv1.StatefulSetList{}
	if err := k.client.List(ctx, stsList, client.InNamespace(kanidm.Namespace), client.MatchingLabelsSelector{
		Selector: labels.Set(map[string]string{
			"app.kubernetes.io/instance":   kanidm.Name,
			"app.kubernetes.io/managed-by": "kaniop",
		}).AsSelector(),
	}); err != nil {
		return fmt.Errorf("listing StatefulSets for %s/%s: %w", kanidm.Namespace, kanidm.Name, err)
	}

	if len(stsList.Items) == 0 {
		logger.Info("no StatefulSets found for Kanidm cluster; skipping TLS reload signal")
		return nil
	}

	var lastErr error
	updated := 0

	for i := range stsList.Items {
		sts := &stsList.Items[i]

		if sts.Spec.Template.Annotations[tlsCertHashAnnotation] == certHash {
			continue
		}

		if sts.Spec.Template.Annotations == nil {
			sts.Spec.Template.Annotations = make(map[string]string)
		}
		sts.Spec.Template.Annotations[tlsCertHashAnnotation] = certHash

		if err := k.client.Update(ctx, sts); err != nil {
			if apierrors.IsConflict(err) {
				logger.V(1).Info("conflict updating StatefulSet for TLS reload; will retry next reconcile", "statefulSet", sts.Name)
				continue
			}
			logger.Error(err, "failed to annotate StatefulSet for TLS reload", "statefulSet", sts.Name)
			lastErr = err
			continue
		}

		updated++
		logger.Info("marked StatefulSet for rolling restart via certificate hash annotation", "statefulSet", sts.Name, "hash", certHash)
	}

	if lastErr != nil {
		return fmt.Errorf("annotating some StatefulSets for TLS reload (updated %d/%d): %w", updated, len(stsList.Items), lastErr)
	}

	return nil
}
