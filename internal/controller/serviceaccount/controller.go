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

// Package serviceaccount implements the Service Account identity-entity
// controller (spec §4.6): it converges a KanidmServiceAccount CR's
// identity attributes against Kanidm and issues/destroys API tokens on
// a write-once, label-keyed basis.
package serviceaccount

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

// Reconciler reconciles a KanidmServiceAccount object.
type Reconciler struct {
	kaniopcontext.Context
}

func remoteName(sa *kaniopv1beta1.KanidmServiceAccount) string {
	if sa.Spec.Name != "" {
		return sa.Spec.Name
	}
	return sa.Name
}

func (r *Reconciler) Finalize(ctx context.Context, sa *kaniopv1beta1.KanidmServiceAccount) error {
	cluster, err := kanidmentity.ResolveClusterIdentity(sa.Spec.KanidmRef, sa.Namespace, false)
	if err != nil {
		return nil
	}
	name := remoteName(sa)
	err = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return client.DeleteServiceAccount(ctx, name)
	})
	if kanioperrors.KindOf(err) == kanioperrors.KindNotFound {
		return nil
	}
	return err
}

func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	metrics := controllermetrics.NewReconcileMetrics(req.Namespace, req.Name, constants.ControllerNameServiceAccount)
	start := time.Now()
	var reconcileErr error
	defer func() {
		metrics.ObserveDuration(time.Since(start).Seconds())
		if reconcileErr != nil {
			metrics.IncrementError(string(kanioperrors.KindOf(reconcileErr)))
		}
	}()

	logger := log.FromContext(ctx).WithValues("controller", constants.ControllerNameServiceAccount, "kanidmserviceaccount", req.NamespacedName)

	sa := &kaniopv1beta1.KanidmServiceAccount{}
	if err := r.Client.Get(ctx, req.NamespacedName, sa); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		reconcileErr = fmt.Errorf("getting kanidmserviceaccount %s: %w", req.NamespacedName, err)
		return ctrl.Result{}, reconcileErr
	}

	outcome, err := reconcile.RunWithFinalizer(ctx, r.Client, sa, constants.FinalizerServiceAccount, r)
	if err != nil {
		reconcileErr = err
		return ctrl.Result{}, reconcileErr
	}
	if outcome != reconcile.OutcomeContinue {
		return ctrl.Result{}, nil
	}

	if readyAt := r.Backoff.ReadyAt(backoffKeyFor(sa)); !readyAt.IsZero() && time.Now().Before(readyAt) {
		return ctrl.Result{RequeueAfter: time.Until(readyAt)}, nil
	}

	cluster, err := kanidmentity.ResolveClusterIdentity(sa.Spec.KanidmRef, sa.Namespace, false)
	if err != nil {
		recordOutcome(sa, err)
		if patchErr := r.patchStatus(ctx, sa); patchErr != nil {
			logger.Error(patchErr, "patching status after invalid kanidmRef")
		}
		return ctrl.Result{}, nil
	}

	reconcileErr = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return applyServiceAccount(ctx, r.Client, client, sa)
	})
	recordOutcome(sa, reconcileErr)
	if err := r.patchStatus(ctx, sa); err != nil {
		reconcileErr = fmt.Errorf("patching status: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	if reconcileErr != nil {
		requeue, delay := kanioperrors.ShouldRequeue(reconcileErr)
		if !requeue {
			return ctrl.Result{}, nil
		}
		if backoffDelay := r.Backoff.OnFailure(backoffKeyFor(sa)); backoffDelay > delay {
			delay = backoffDelay
		}
		return ctrl.Result{RequeueAfter: delay}, reconcileErr
	}

	r.Backoff.OnSuccess(backoffKeyFor(sa))
	return ctrl.Result{RequeueAfter: constants.RequeueStandard}, nil
}

func (r *Reconciler) patchStatus(ctx context.Context, sa *kaniopv1beta1.KanidmServiceAccount) error {
	patch := &kaniopv1beta1.KanidmServiceAccount{}
	patch.Name = sa.Name
	patch.Namespace = sa.Namespace
	patch.TypeMeta = sa.TypeMeta
	patch.Status = sa.Status
	return reconcile.PatchStatus(ctx, r.Client, patch, constants.ControllerNameServiceAccount)
}

func recordOutcome(sa *kaniopv1beta1.KanidmServiceAccount, err error) {
	generation := sa.Generation
	sa.Status.ObservedGeneration = generation
	if err == nil {
		status.True(&sa.Status.Conditions, generation, constants.ConditionReady, constants.ReasonReady, "service account converged with kanidm")
		return
	}
	switch kanioperrors.KindOf(err) {
	case kanioperrors.KindInvalid:
		status.False(&sa.Status.Conditions, generation, constants.ConditionReady, constants.ReasonInvalid, err.Error())
	case kanioperrors.KindNotFound:
		status.False(&sa.Status.Conditions, generation, constants.ConditionReady, constants.ReasonNotReady, err.Error())
	case kanioperrors.KindAuthFailed:
		status.False(&sa.Status.Conditions, generation, constants.ConditionReady, constants.ReasonAuthFailed, err.Error())
	default:
		status.False(&sa.Status.Conditions, generation, constants.ConditionReady, constants.ReasonRemoteError, err.Error())
	}
}
