package kanidm

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/backoff"
	"github.com/kaniop/kaniop/internal/constants"
	"github.com/kaniop/kaniop/internal/status"
)

const fieldOwner = constants.ControllerNameKanidm

// applyObject performs a Server-Side Apply of obj, the same
// create-or-update idiom the teacher's EnsureStatefulSetWithRevision
// uses via a get-then-create-or-update branch, condensed here to one
// unconditional Apply call per spec's "desired-state reconciliation"
// model (spec §4.1).
func applyObject(ctx context.Context, c client.Client, obj client.Object) error {
	return c.Patch(ctx, obj, client.Apply, client.FieldOwner(fieldOwner), client.ForceOwnership)
}

// deleteIfExists deletes the named object of obj's kind if it exists,
// treating NotFound as success, used to clean up an optional owned
// object (e.g. an Ingress) once its Kanidm.spec field is cleared.
func deleteIfExists(ctx context.Context, c client.Client, obj client.Object, namespace, name string) error {
	obj.SetNamespace(namespace)
	obj.SetName(name)
	if err := c.Delete(ctx, obj); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("deleting %s/%s: %w", namespace, name, err)
	}
	return nil
}

func backoffKeyFor(kanidm *kaniopv1beta1.Kanidm) backoff.Key {
	return backoff.Key{Controller: constants.ControllerNameKanidm, Namespace: kanidm.Namespace, Name: kanidm.Name}
}

// recordInvalid sets the terminal Ready=False,reason=Invalid condition
// spec §4.5 step 1 requires when validateSpec rejects the spec; no
// backoff is scheduled since the operator must wait for the user to edit
// the spec, not for a timer.
func recordInvalid(kanidm *kaniopv1beta1.Kanidm, err error) {
	status.False(&kanidm.Status.Conditions, kanidm.Generation, constants.ConditionReady, constants.ReasonInvalid, err.Error())
}
