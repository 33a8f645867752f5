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

// Package person implements the Person identity-entity controller (spec
// §4.6): it converges a KanidmPersonAccount CR's identity attributes and
// POSIX extension against Kanidm, and issues credential reset tokens on
// request (spec §4.6 step 7). spec.groups is not reconciled here.
package person

import (
	"context"
	"fmt"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
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

// Reconciler reconciles a KanidmPersonAccount object.
type Reconciler struct {
	kaniopcontext.Context
}

func remoteName(person *kaniopv1beta1.KanidmPersonAccount) string {
	if person.Spec.Name != "" {
		return person.Spec.Name
	}
	return person.Name
}

func (r *Reconciler) Finalize(ctx context.Context, person *kaniopv1beta1.KanidmPersonAccount) error {
	cluster, err := kanidmentity.ResolveClusterIdentity(person.Spec.KanidmRef, person.Namespace, false)
	if err != nil {
		return nil
	}
	name := remoteName(person)
	err = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return client.DeletePerson(ctx, name)
	})
	if kanioperrors.KindOf(err) == kanioperrors.KindNotFound {
		return nil
	}
	return err
}

func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	metrics := controllermetrics.NewReconcileMetrics(req.Namespace, req.Name, constants.ControllerNamePerson)
	start := time.Now()
	var reconcileErr error
	defer func() {
		metrics.ObserveDuration(time.Since(start).Seconds())
		if reconcileErr != nil {
			metrics.IncrementError(string(kanioperrors.KindOf(reconcileErr)))
		}
	}()

	logger := log.FromContext(ctx).WithValues("controller", constants.ControllerNamePerson, "kanidmpersonaccount", req.NamespacedName)

	person := &kaniopv1beta1.KanidmPersonAccount{}
	if err := r.Client.Get(ctx, req.NamespacedName, person); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		reconcileErr = fmt.Errorf("getting kanidmpersonaccount %s: %w", req.NamespacedName, err)
		return ctrl.Result{}, reconcileErr
	}

	outcome, err := reconcile.RunWithFinalizer(ctx, r.Client, person, constants.FinalizerPerson, r)
	if err != nil {
		reconcileErr = err
		return ctrl.Result{}, reconcileErr
	}
	if outcome != reconcile.OutcomeContinue {
		return ctrl.Result{}, nil
	}

	if readyAt := r.Backoff.ReadyAt(backoffKeyFor(person)); !readyAt.IsZero() && time.Now().Before(readyAt) {
		return ctrl.Result{RequeueAfter: time.Until(readyAt)}, nil
	}

	cluster, err := kanidmentity.ResolveClusterIdentity(person.Spec.KanidmRef, person.Namespace, false)
	if err != nil {
		recordOutcome(person, err)
		if patchErr := r.patchStatus(ctx, person); patchErr != nil {
			logger.Error(patchErr, "patching status after invalid kanidmRef")
		}
		return ctrl.Result{}, nil
	}

	domain := r.clusterDomain(ctx, cluster)

	reconcileErr = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return applyPerson(ctx, r.Client, client, person, domain)
	})
	recordOutcome(person, reconcileErr)
	if err := r.patchStatus(ctx, person); err != nil {
		reconcileErr = fmt.Errorf("patching status: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	if reconcileErr != nil {
		requeue, delay := kanioperrors.ShouldRequeue(reconcileErr)
		if !requeue {
			return ctrl.Result{}, nil
		}
		if backoffDelay := r.Backoff.OnFailure(backoffKeyFor(person)); backoffDelay > delay {
			delay = backoffDelay
		}
		return ctrl.Result{RequeueAfter: delay}, reconcileErr
	}

	r.Backoff.OnSuccess(backoffKeyFor(person))
	return ctrl.Result{RequeueAfter: constants.RequeueStandard}, nil
}

// clusterDomain best-effort-reads the parent Kanidm CR's domain, used to
// render the public credential-reset URL (spec §4.6 step 7). A lookup
// failure here is not terminal; the token is still issued and reported
// without a rendered URL.
func (r *Reconciler) clusterDomain(ctx context.Context, cluster kanidmclient.ClusterIdentity) string {
	kanidm := &kaniopv1beta1.Kanidm{}
	if err := r.Client.Get(ctx, types.NamespacedName{Namespace: cluster.Namespace, Name: cluster.Name}, kanidm); err != nil {
		return ""
	}
	return kanidm.Spec.Domain
}

func (r *Reconciler) patchStatus(ctx context.Context, person *kaniopv1beta1.KanidmPersonAccount) error {
	patch := &kaniopv1beta1.KanidmPersonAccount{}
	patch.Name = person.Name
	patch.Namespace = person.Namespace
	patch.TypeMeta = person.TypeMeta
	patch.Status = person.Status
	return reconcile.PatchStatus(ctx, r.Client, patch, constants.ControllerNamePerson)
}

func recordOutcome(person *kaniopv1beta1.KanidmPersonAccount, err error) {
	generation := person.Generation
	person.Status.ObservedGeneration = generation
	if err == nil {
		status.True(&person.Status.Conditions, generation, constants.ConditionReady, constants.ReasonReady, "person converged with kanidm")
		return
	}
	switch kanioperrors.KindOf(err) {
	case kanioperrors.KindInvalid:
		status.False(&person.Status.Conditions, generation, constants.ConditionReady, constants.ReasonInvalid, err.Error())
	case kanioperrors.KindNotFound:
		status.False(&person.Status.Conditions, generation, constants.ConditionReady, constants.ReasonNotReady, err.Error())
	case kanioperrors.KindAuthFailed:
		status.False(&person.Status.Conditions, generation, constants.ConditionReady, constants.ReasonAuthFailed, err.Error())
	default:
		status.False(&person.Status.Conditions, generation, constants.ConditionReady, constants.ReasonRemoteError, err.Error())
	}
}
