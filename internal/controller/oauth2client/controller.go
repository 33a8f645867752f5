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

// Package oauth2client implements the OAuth2 Client identity-entity
// controller (spec §4.6): it converges a KanidmOAuth2Client CR's
// registration, redirect origins, scope/claim maps and flags against
// Kanidm, and rotates the generated client secret of confidential
// clients into a child Secret.
package oauth2client

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

// Reconciler reconciles a KanidmOAuth2Client object.
type Reconciler struct {
	kaniopcontext.Context
}

func remoteName(client *kaniopv1beta1.KanidmOAuth2Client) string {
	if client.Spec.Name != "" {
		return client.Spec.Name
	}
	return client.Name
}

// OAuth2Client is the only entity kind spec §4.6 step 1 permits to
// reference a Kanidm cluster outside its own namespace.
const allowCrossNamespace = true

func (r *Reconciler) Finalize(ctx context.Context, oauth2 *kaniopv1beta1.KanidmOAuth2Client) error {
	cluster, err := kanidmentity.ResolveClusterIdentity(oauth2.Spec.KanidmRef, oauth2.Namespace, allowCrossNamespace)
	if err != nil {
		return nil
	}
	name := remoteName(oauth2)
	err = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return client.DeleteOAuth2Client(ctx, name)
	})
	if kanioperrors.KindOf(err) == kanioperrors.KindNotFound {
		return nil
	}
	return err
}

func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	metrics := controllermetrics.NewReconcileMetrics(req.Namespace, req.Name, constants.ControllerNameOAuth2Client)
	start := time.Now()
	var reconcileErr error
	defer func() {
		metrics.ObserveDuration(time.Since(start).Seconds())
		if reconcileErr != nil {
			metrics.IncrementError(string(kanioperrors.KindOf(reconcileErr)))
		}
	}()

	logger := log.FromContext(ctx).WithValues("controller", constants.ControllerNameOAuth2Client, "kanidmoauth2client", req.NamespacedName)

	oauth2 := &kaniopv1beta1.KanidmOAuth2Client{}
	if err := r.Client.Get(ctx, req.NamespacedName, oauth2); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		reconcileErr = fmt.Errorf("getting kanidmoauth2client %s: %w", req.NamespacedName, err)
		return ctrl.Result{}, reconcileErr
	}

	outcome, err := reconcile.RunWithFinalizer(ctx, r.Client, oauth2, constants.FinalizerOAuth2Client, r)
	if err != nil {
		reconcileErr = err
		return ctrl.Result{}, reconcileErr
	}
	if outcome != reconcile.OutcomeContinue {
		return ctrl.Result{}, nil
	}

	if readyAt := r.Backoff.ReadyAt(backoffKeyFor(oauth2)); !readyAt.IsZero() && time.Now().Before(readyAt) {
		return ctrl.Result{RequeueAfter: time.Until(readyAt)}, nil
	}

	cluster, err := kanidmentity.ResolveClusterIdentity(oauth2.Spec.KanidmRef, oauth2.Namespace, allowCrossNamespace)
	if err != nil {
		recordOutcome(oauth2, err)
		if patchErr := r.patchStatus(ctx, oauth2); patchErr != nil {
			logger.Error(patchErr, "patching status after invalid kanidmRef")
		}
		return ctrl.Result{}, nil
	}

	reconcileErr = r.Pool.WithSession(ctx, cluster, func(ctx context.Context, client *kanidmclient.Client) error {
		return applyOAuth2Client(ctx, r.Client, client, oauth2)
	})
	recordOutcome(oauth2, reconcileErr)
	if err := r.patchStatus(ctx, oauth2); err != nil {
		reconcileErr = fmt.Errorf("patching status: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	if reconcileErr != nil {
		requeue, delay := kanioperrors.ShouldRequeue(reconcileErr)
		if !requeue {
			return ctrl.Result{}, nil
		}
		if backoffDelay := r.Backoff.OnFailure(backoffKeyFor(oauth2)); backoffDelay > delay {
			delay = backoffDelay
		}
		return ctrl.Result{RequeueAfter: delay}, reconcileErr
	}

	r.Backoff.OnSuccess(backoffKeyFor(oauth2))
	return ctrl.Result{RequeueAfter: constants.RequeueStandard}, nil
}

func (r *Reconciler) patchStatus(ctx context.Context, oauth2 *kaniopv1beta1.KanidmOAuth2Client) error {
	patch := &kaniopv1beta1.KanidmOAuth2Client{}
	patch.Name = oauth2.Name
	patch.Namespace = oauth2.Namespace
	patch.TypeMeta = oauth2.TypeMeta
	patch.Status = oauth2.Status
	return reconcile.PatchStatus(ctx, r.Client, patch, constants.ControllerNameOAuth2Client)
}

func recordOutcome(oauth2 *kaniopv1beta1.KanidmOAuth2Client, err error) {
	generation := oauth2.Generation
	oauth2.Status.ObservedGeneration = generation
	if err == nil {
		status.True(&oauth2.Status.Conditions, generation, constants.ConditionReady, constants.ReasonReady, "oauth2 client converged with kanidm")
		return
	}
	switch kanioperrors.KindOf(err) {
	case kanioperrors.KindInvalid:
		status.False(&oauth2.Status.Conditions, generation, constants.ConditionReady, constants.ReasonInvalid, err.Error())
	case kanioperrors.KindNotFound:
		status.False(&oauth2.Status.Conditions, generation, constants.ConditionReady, constants.ReasonNotReady, err.Error())
	case kanioperrors.KindAuthFailed:
		status.False(&oauth2.Status.Conditions, generation, constants.ConditionReady, constants.ReasonAuthFailed, err.Error())
	default:
		status.False(&oauth2.Status.Conditions, generation, constants.ConditionReady, constants.ReasonRemoteError, err.Error())
	}
}
