package reconcile

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Object is the subset of client.Object plus the finalizer accessors this
// package needs. Every Kaniop CRD type satisfies it directly.
type Object interface {
	client.Object
}

// FinalizedReconciler is implemented by a controller that wants the
// uniform finalizer state machine factored out by RunWithFinalizer
// (spec §4.3 steps 1-3): add the finalizer on first sight, run
// Finalize on deletion, remove the finalizer once Finalize succeeds.
type FinalizedReconciler[T Object] interface {
	// Finalize performs whatever external cleanup is needed (Kanidm-side
	// deletes, owned-Secret cleanup already handled by owner references)
	// before the finalizer is removed. Returning a requeue-worthy error
	// keeps the finalizer in place and retries later.
	Finalize(ctx context.Context, obj T) error
}

// ContainsFinalizer reports whether value is present in finalizers.
func ContainsFinalizer(finalizers []string, value string) bool {
	for _, f := range finalizers {
		if f == value {
			return true
		}
	}
	return false
}

// RemoveFinalizer returns finalizers with value removed, preserving order.
func RemoveFinalizer(finalizers []string, value string) []string {
	out := make([]string, 0, len(finalizers))
	for _, f := range finalizers {
		if f != value {
			out = append(out, f)
		}
	}
	return out
}

// Outcome tells the caller whether the object is being deleted and
// whether the caller's own reconcile logic should still run this pass.
type Outcome int

const (
	// OutcomeContinue means the object is live and the finalizer is (now)
	// present; the caller should proceed with its normal reconcile logic.
	OutcomeContinue Outcome = iota
	// OutcomeRequeued means the finalizer was just added via an Update
	// call; the caller should stop and let the resulting watch event
	// drive the next reconcile.
	OutcomeRequeued
	// OutcomeFinalized means the object was being deleted and finalization
	// completed (or the finalizer was already absent); the caller should
	// stop, there is nothing further to reconcile.
	OutcomeFinalized
)

// RunWithFinalizer implements the finalizer dance shared by every Kaniop
// controller (spec §4.3 steps 1-3), grounded on the teacher's
// provisioner controller's inline containsFinalizer/removeFinalizer
// handling, generalized into one function reused by all five reconcilers
// instead of duplicating it five times.
func RunWithFinalizer[T Object](ctx context.Context, c client.Client, obj T, finalizer string, r FinalizedReconciler[T]) (Outcome, error) {
	if !obj.GetDeletionTimestamp().IsZero() {
		if !ContainsFinalizer(obj.GetFinalizers(), finalizer) {
			return OutcomeFinalized, nil
		}
		if err := r.Finalize(ctx, obj); err != nil {
			return OutcomeFinalized, fmt.Errorf("finalizing %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
		}
		obj.SetFinalizers(RemoveFinalizer(obj.GetFinalizers(), finalizer))
		if err := c.Update(ctx, obj); err != nil {
			return OutcomeFinalized, fmt.Errorf("removing finalizer from %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
		}
		return OutcomeFinalized, nil
	}

	if !ContainsFinalizer(obj.GetFinalizers(), finalizer) {
		obj.SetFinalizers(append(obj.GetFinalizers(), finalizer))
		if err := c.Update(ctx, obj); err != nil {
			return OutcomeContinue, fmt.Errorf("adding finalizer to %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
		}
		return OutcomeRequeued, nil
	}

	return OutcomeContinue, nil
}

// PatchStatus persists obj's status subresource via Server-Side Apply,
// the way the teacher's patchStatusSSA helpers do, keyed by fieldOwner so
// concurrent controllers never stomp on each other's status fields. obj
// should carry only TypeMeta, ObjectMeta (Name/Namespace) and Status, not
// a full copy of the live object, so the patch does not also assert
// ownership of spec fields.
func PatchStatus(ctx context.Context, c client.Client, obj client.Object, fieldOwner string) error {
	return c.Status().Patch(ctx, obj, client.Apply, client.FieldOwner(fieldOwner), client.ForceOwnership)
}
