package serviceaccount

import (
	"time"

	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/controller"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	kaniopcontroller "github.com/kaniop/kaniop/internal/controller"
)

// SetupWithManager registers the Service Account controller with the manager.
func (r *Reconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&kaniopv1beta1.KanidmServiceAccount{}).
		WithEventFilter(kaniopcontroller.EntityPredicate()).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: 4,
			RateLimiter: workqueue.NewTypedItemExponentialFailureRateLimiter[ctrl.Request](
				1*time.Second, 5*time.Minute,
			),
		}).
		Named("kanidmserviceaccount").
		Complete(r)
}
