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

package kanidm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	networkingv1 "k8s.io/api/networking/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	certmanager "github.com/kaniop/kaniop/internal/certs"
	controllermetrics "github.com/kaniop/kaniop/internal/controller"
	"github.com/kaniop/kaniop/internal/constants"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
	"github.com/kaniop/kaniop/internal/kaniopcontext"
	"github.com/kaniop/kaniop/internal/reconcile"
	"github.com/kaniop/kaniop/internal/status"
)

// Reconciler reconciles a Kanidm object, grounded on the teacher's
// OpenBaoClusterReconciler.Reconcile pipeline shape (validate, ensure
// secrets, ensure certs, ensure workloads, ensure upgrade gating, ensure
// replication, update status), condensed onto the generic
// reconcile.RunWithFinalizer state machine instead of the teacher's
// inline finalizer dance, and onto the single-tenant RBAC model Kaniop's
// operator actually runs under (no provisioner-granted per-namespace
// Roles, unlike the teacher's zero-trust multi-tenant design).
type Reconciler struct {
	kaniopcontext.Context
	Certs *certmanager.Manager
}

func (r *Reconciler) Finalize(ctx context.Context, kanidm *kaniopv1beta1.Kanidm) error {
	logger := log.FromContext(ctx)
	for _, group := range kanidm.Spec.ReplicaGroups {
		sts := &appsv1.StatefulSet{}
		name := statefulSetName(kanidm, group)
		if err := r.Client.Get(ctx, client.ObjectKey{Namespace: kanidm.Namespace, Name: name}, sts); err == nil {
			if err := r.Client.Delete(ctx, sts); err != nil && !apierrors.IsNotFound(err) {
				return fmt.Errorf("deleting statefulset %s/%s: %w", kanidm.Namespace, name, err)
			}
		}
	}
	logger.Info("finalized kanidm cluster", "name", kanidm.Name, "namespace", kanidm.Namespace)
	controllermetrics.NewClusterMetrics(kanidm.Namespace, kanidm.Name).Clear()
	return nil
}

// Reconcile is the main Kubernetes reconciliation loop entry point.
func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (result ctrl.Result, reconcileErr error) {
	metrics := controllermetrics.NewReconcileMetrics(req.Namespace, req.Name, constants.ControllerNameKanidm)
	start := time.Now()
	var kanidm *kaniopv1beta1.Kanidm
	defer func() {
		metrics.ObserveDuration(time.Since(start).Seconds())
		if reconcileErr == nil {
			return
		}
		metrics.IncrementError(string(kanioperrors.KindOf(reconcileErr)))
		if kanidm == nil {
			return
		}
		if backoffDelay := r.Backoff.OnFailure(backoffKeyFor(kanidm)); backoffDelay > result.RequeueAfter {
			result.RequeueAfter = backoffDelay
		}
	}()

	logger := log.FromContext(ctx).WithValues("controller", constants.ControllerNameKanidm, "kanidm", req.NamespacedName)

	kanidm = &kaniopv1beta1.Kanidm{}
	if err := r.Client.Get(ctx, req.NamespacedName, kanidm); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		reconcileErr = fmt.Errorf("getting kanidm %s: %w", req.NamespacedName, err)
		return ctrl.Result{}, reconcileErr
	}

	outcome, err := reconcile.RunWithFinalizer(ctx, r.Client, kanidm, constants.FinalizerKanidm, r)
	if err != nil {
		reconcileErr = err
		return ctrl.Result{}, reconcileErr
	}
	if outcome != reconcile.OutcomeContinue {
		return ctrl.Result{}, nil
	}

	if readyAt := r.Backoff.ReadyAt(backoffKeyFor(kanidm)); !readyAt.IsZero() && time.Now().Before(readyAt) {
		return ctrl.Result{RequeueAfter: time.Until(readyAt)}, nil
	}

	if err := validateSpec(kanidm); err != nil {
		recordInvalid(kanidm, err)
		if patchErr := r.patchStatus(ctx, kanidm); patchErr != nil {
			logger.Error(patchErr, "patching status after validation failure")
		}
		return ctrl.Result{}, nil
	}

	if _, err := EnsureAdminSecret(ctx, r.Client, r.Scheme, kanidm); err != nil {
		reconcileErr = fmt.Errorf("ensuring admin secret: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	if r.Certs != nil {
		if _, err := r.Certs.Reconcile(ctx, logger, kanidm); err != nil {
			reconcileErr = fmt.Errorf("reconciling tls: %w", err)
			return ctrl.Result{}, reconcileErr
		}
	}

	skewErr, waiting, err := r.gateUpgrade(ctx, kanidm)
	if err != nil {
		reconcileErr = fmt.Errorf("gating upgrade: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	adminExists, _ := secretExists(ctx, r.Client, kanidm.Namespace, adminSecretName(kanidm))

	switch {
	case skewErr != nil:
		if err := aggregateStatus(ctx, r.Client, kanidm, adminExists, skewErr); err != nil {
			reconcileErr = fmt.Errorf("aggregating status: %w", err)
			return ctrl.Result{}, reconcileErr
		}
		if err := r.patchStatus(ctx, kanidm); err != nil {
			reconcileErr = fmt.Errorf("patching status: %w", err)
			return ctrl.Result{}, reconcileErr
		}
		return ctrl.Result{}, nil
	case waiting:
		status.True(&kanidm.Status.Conditions, kanidm.Generation, constants.ConditionUpgrading, constants.ReasonProgressing, "waiting for the upgrade pre-check job")
		if err := r.patchStatus(ctx, kanidm); err != nil {
			reconcileErr = fmt.Errorf("patching status: %w", err)
			return ctrl.Result{}, reconcileErr
		}
		return ctrl.Result{RequeueAfter: constants.RequeueShort}, nil
	}
	status.False(&kanidm.Status.Conditions, kanidm.Generation, constants.ConditionUpgrading, constants.ReasonReady, "no upgrade in progress")

	if err := r.reconcileWorkloads(ctx, kanidm); err != nil {
		reconcileErr = fmt.Errorf("reconciling workloads: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	if err := r.reconcileNetworking(ctx, kanidm); err != nil {
		reconcileErr = fmt.Errorf("reconciling networking: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	r.probeReplicationTargets(ctx, logger, kanidm)

	if err := aggregateStatus(ctx, r.Client, kanidm, adminExists, nil); err != nil {
		reconcileErr = fmt.Errorf("aggregating status: %w", err)
		return ctrl.Result{}, reconcileErr
	}
	controllermetrics.NewClusterMetrics(kanidm.Namespace, kanidm.Name).SetAvailableReplicas(kanidm.Status.AvailableReplicas)
	if err := r.patchStatus(ctx, kanidm); err != nil {
		reconcileErr = fmt.Errorf("patching status: %w", err)
		return ctrl.Result{}, reconcileErr
	}

	r.Backoff.OnSuccess(backoffKeyFor(kanidm))
	return ctrl.Result{RequeueAfter: constants.RequeueStandard}, nil
}

// gateUpgrade compares the image already rolled out to a cluster's first
// replica group against Kanidm.spec.image (spec §4.5 step 6). A skew
// error is terminal for this reconcile; waiting=true means a same-minor
// upgrade's pre-check Job hasn't finished yet and the image rollout must
// hold. Both are no-ops when nothing is deployed yet or the image hasn't
// changed, so a brand-new cluster never pays the pre-check cost.
func (r *Reconciler) gateUpgrade(ctx context.Context, kanidm *kaniopv1beta1.Kanidm) (skewErr error, waiting bool, err error) {
	groups := kanidm.Spec.ReplicaGroups
	if len(groups) == 0 {
		return nil, false, nil
	}

	sts := &appsv1.StatefulSet{}
	getErr := r.Client.Get(ctx, client.ObjectKey{Namespace: kanidm.Namespace, Name: statefulSetName(kanidm, groups[0])}, sts)
	if getErr != nil || len(sts.Spec.Template.Spec.Containers) == 0 {
		return nil, false, nil
	}

	currentImage := sts.Spec.Template.Spec.Containers[0].Image
	desiredImage := kanidmImage(kanidm)
	if currentImage == desiredImage {
		return nil, false, nil
	}

	if err := checkUpgradeSkew(currentImage, desiredImage); err != nil {
		return err, false, nil
	}
	if isPatchOnlyUpgrade(currentImage, desiredImage) {
		return nil, false, nil
	}

	verifiedImage, err := verifyUpgradeImage(ctx, log.FromContext(ctx), r.Client, kanidm, desiredImage)
	if err != nil {
		return nil, false, fmt.Errorf("verifying upgrade image: %w", err)
	}

	result, err := EnsureUpgradePrecheckJob(ctx, r.Client, r.Scheme, kanidm, verifiedImage)
	if err != nil {
		return nil, false, err
	}
	if result.Failed {
		return fmt.Errorf("upgrade pre-check job failed for image %s", verifiedImage), false, nil
	}
	if !result.Succeeded {
		return nil, true, nil
	}
	return nil, false, nil
}

// probeReplicationTargets dials every configured external replication
// node and records its reachability in Kanidm.status.replication (spec
// §4.5 step 7). A peer that can't be reached never fails the reconcile,
// it only flips ReplicationHealthy.
func (r *Reconciler) probeReplicationTargets(ctx context.Context, logger logr.Logger, kanidm *kaniopv1beta1.Kanidm) {
	metrics := controllermetrics.NewClusterMetrics(kanidm.Namespace, kanidm.Name)
	for _, target := range replicationTargets(kanidm) {
		err := probeReplicationPeer(ctx, target.Hostname, target.Port)
		if err != nil {
			logger.V(1).Info("replication peer unreachable", "peer", target.Name, "error", err.Error())
		}
		recordReplicationPeerStatus(kanidm, target.Name, err == nil, metav1.Now())
		metrics.SetPeerHealthy(target.Name, err == nil)
	}
}

func (r *Reconciler) reconcileWorkloads(ctx context.Context, kanidm *kaniopv1beta1.Kanidm) error {
	for _, group := range sortedReplicaGroups(kanidm) {
		topology := buildReplicationTopology(kanidm, group)
		sts, err := buildStatefulSet(kanidm, group, topology)
		if err != nil {
			return fmt.Errorf("building statefulset for replica group %q: %w", group.Name, err)
		}
		if err := controllerutil.SetControllerReference(kanidm, sts, r.Scheme); err != nil {
			return err
		}
		if err := applyObject(ctx, r.Client, sts); err != nil {
			return fmt.Errorf("applying statefulset %q: %w", sts.Name, err)
		}
	}
	return nil
}

func (r *Reconciler) reconcileNetworking(ctx context.Context, kanidm *kaniopv1beta1.Kanidm) error {
	for _, group := range sortedReplicaGroups(kanidm) {
		headless := buildHeadlessService(kanidm, group)
		groupSvc := buildGroupService(kanidm, group)
		for _, svc := range []*corev1.Service{headless, groupSvc} {
			if err := controllerutil.SetControllerReference(kanidm, svc, r.Scheme); err != nil {
				return err
			}
			if err := applyObject(ctx, r.Client, svc); err != nil {
				return fmt.Errorf("applying service %q: %w", svc.Name, err)
			}
		}
	}

	global := buildGlobalService(kanidm)
	if err := controllerutil.SetControllerReference(kanidm, global, r.Scheme); err != nil {
		return err
	}
	if err := applyObject(ctx, r.Client, global); err != nil {
		return fmt.Errorf("applying global service: %w", err)
	}

	ingress := buildIngress(kanidm)
	if ingress == nil {
		return deleteIfExists(ctx, r.Client, &networkingv1.Ingress{}, kanidm.Namespace, kanidm.Name)
	}
	if err := controllerutil.SetControllerReference(kanidm, ingress, r.Scheme); err != nil {
		return err
	}
	return applyObject(ctx, r.Client, ingress)
}

func (r *Reconciler) patchStatus(ctx context.Context, kanidm *kaniopv1beta1.Kanidm) error {
	patch := &kaniopv1beta1.Kanidm{}
	patch.Name = kanidm.Name
	patch.Namespace = kanidm.Namespace
	patch.TypeMeta = kanidm.TypeMeta
	patch.Status = kanidm.Status
	return reconcile.PatchStatus(ctx, r.Client, patch, constants.ControllerNameKanidm)
}

