package kanidm

import (
	"time"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/controller"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	kaniopcontroller "github.com/kaniop/kaniop/internal/controller"
)

// SetupWithManager registers the Kanidm controller with the manager.
// Unlike the teacher's OpenBaoClusterReconciler, which deliberately
// avoids Owns() watches because its multi-tenant RBAC model grants the
// controller only namespace-scoped Roles handed out by a provisioner,
// Kaniop's operator runs with its own cluster-scoped ClusterRole, so
// Owns() watches on every owned child kind are the straightforward,
// idiomatic choice (spec §4.5: status MUST reflect child resource
// changes within one watch delay).
func (r *Reconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&kaniopv1beta1.Kanidm{}).
		Owns(&appsv1.StatefulSet{}).
		Owns(&corev1.Service{}).
		Owns(&corev1.Secret{}).
		Owns(&batchv1.Job{}).
		Owns(&networkingv1.Ingress{}).
		WithEventFilter(kaniopcontroller.KanidmPredicate()).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: 4,
			RateLimiter: workqueue.NewTypedItemExponentialFailureRateLimiter[ctrl.Request](
				1*time.Second, 5*time.Minute,
			),
		}).
		Named("kanidm").
		Complete(r)
}
