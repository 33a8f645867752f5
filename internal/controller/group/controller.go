/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package group implements the Group identity-entity controller (spec
// §4.6): it converges a KanidmGroup CR's membership, mail and
// entry_managed_by attributes against the corresponding Kanidm group
// entity, grounded on the Kanidm Cluster Controller's reconcile pipeline
// shape but trimmed to the single diff-then-apply step the four entity
// controllers share.
package group

import (
	"context"
	"fmt"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	controllermetrics "github.com/kaniop/kaniop/internal/controller"
	"github.com/kaniop/kaniop/internal/constants"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
	"github.com/kaniop/kaniop/internal/kaniopcontext"
	"github.com/kaniop/kaniop/internal/kanidmclient"
	"github.com/kaniop/kaniop/internal/kanidmentity"
	"github.com/kaniop/kaniop/internal/reconcile"
	"github.com/kaniop/kaniop/internal/status"
)

// Reconciler reconciles a KanidmGroup object.
type Reconciler struct {
	kaniopcontext.Context
}

// remoteName returns the short name this group is addressed by in
// Kanidm, defaulting to the KanidmGroup resource's own name.
func remoteName(group *kaniopv1beta1.KanidmGroup) string {
	if group.Spec.Name != "" {
		return group.Spec.Name
	}
	return group.Name
}

func (r *Reconciler) Finalize(ctx context.Context, group *kaniopv1beta1.KanidmGroup) error {
	cluster, err := kanidmentity.ResolveClusterIdentity(group.Spec.KanidmRef, group.Namespace, false)
	if err != nil {
		// An unresolvable kanidmRef means there is nothing remote we could
		// have created; let the finalizer clear regardless.
		return nil
	}
	name := remoteName(group)
	err = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return client.DeleteGroup(ctx, name)
	})
	if kanioperrors.KindOf(err) == kanioperrors.KindNotFound {
		return nil
	}
	return err
}

func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	metrics := controllermetrics.NewReconcileMetrics(req.Namespace, req.Name, constants.ControllerNameGroup)
	start := time.Now()
	var reconcileErr error
	defer func() {
		metrics.ObserveDuration(time.Since(start).Seconds())
		if reconcileErr != nil {
			metrics.IncrementError(string(kanioperrors.KindOf(reconcileErr)))
		}
	}()

	logger := log.FromContext(ctx).WithValues("controller", constants.ControllerNameGroup, "kanidmgroup", req.NamespacedName)

	group := &kaniopv1beta1.KanidmGroup{}
	if err := r.Client.Get(ctx, req.NamespacedName, group); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		reconcileErr = fmt.Errorf("getting kanidmgroup %s: %w", req.NamespacedName, err)
		return ctrl.Result{}, reconcileErr
	}

	outcome, err := reconcile.RunWithFinalizer(ctx, r.Client, group, constants.FinalizerGroup, r)
	if err != nil {
		reconcileErr = err
		return ctrl.Result{}, reconcileErr
	}
	if outcome != reconcile.OutcomeContinue {
		return ctrl.Result{}, nil
	}

	if readyAt := r.Backoff.ReadyAt(backoffKeyFor(group)); !readyAt.IsZero() && time.Now().Before(readyAt) {
		return ctrl.Result{RequeueAfter: time.Until(readyAt)}, nil
	}

	cluster, err := kanidmentity.ResolveClusterIdentity(group.Spec.KanidmRef, group.Namespace, false)
	if err != nil {
		recordOutcome(group, err)
		if patchErr := r.patchStatus(ctx, group); patchErr != nil {
			logger.Error(patchErr, "patching status after invalid kanidmRef")
		}
		return ctrl.Result{}, nil
	}

	reconcileErr = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return applyGroup(ctx, client, group)
	})
	recordOutcome(group, reconcileErr)
	if err := r.patchStatus(ctx, group); err != nil {
		reconcileErr = fmt.Errorf("patching status: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	if reconcileErr != nil {
		requeue, delay := kanioperrors.ShouldRequeue(reconcileErr)
		if !requeue {
			return ctrl.Result{}, nil
		}
		if backoffDelay := r.Backoff.OnFailure(backoffKeyFor(group)); backoffDelay > delay {
			delay = backoffDelay
		}
		return ctrl.Result{RequeueAfter: delay}, reconcileErr
	}

	r.Backoff.OnSuccess(backoffKeyFor(group))
	return ctrl.Result{RequeueAfter: constants.RequeueStandard}, nil
}

func (r *Reconciler) patchStatus(ctx context.Context, group *kaniopv1beta1.KanidmGroup) error {
	patch := &kaniopv1beta1.KanidmGroup{}
	patch.Name = group.Name
	patch.Namespace = group.Namespace
	patch.TypeMeta = group.TypeMeta
	patch.Status = group.Status
	return reconcile.PatchStatus(ctx, r.Client, patch, constants.ControllerNameGroup)
}

// recordOutcome sets the Ready condition from a reconcile attempt's
// terminal error, classifying it the way spec §7's taxonomy requires:
// Invalid is terminal, NotFound/AuthFailed/Remote/Network/Timeout are
// reported as not-ready but retried.
func recordOutcome(group *kaniopv1beta1.KanidmGroup, err error) {
	generation := group.Generation
	group.Status.ObservedGeneration = generation
	if err == nil {
		status.True(&group.Status.Conditions, generation, constants.ConditionReady, constants.ReasonReady, "group converged with kanidm")
		return
	}
	switch kanioperrors.KindOf(err) {
	case kanioperrors.KindInvalid:
		status.False(&group.Status.Conditions, generation, constants.ConditionReady, constants.ReasonInvalid, err.Error())
	case kanioperrors.KindNotFound:
		status.False(&group.Status.Conditions, generation, constants.ConditionReady, constants.ReasonNotReady, err.Error())
	case kanioperrors.KindAuthFailed:
		status.False(&group.Status.Conditions, generation, constants.ConditionReady, constants.ReasonAuthFailed, err.Error())
	default:
		status.False(&group.Status.Conditions, generation, constants.ConditionReady, constants.ReasonRemoteError, err.Error())
	}
}
