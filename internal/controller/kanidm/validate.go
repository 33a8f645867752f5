// Package kanidm implements the Kanidm Cluster Controller (spec §4.5):
// it reconciles a Kanidm CR into bootstrap Secrets, per-replica-group
// StatefulSets, Services, an optional Ingress, replication wiring, and
// upgrade gating, grounded on the teacher's OpenBaoClusterReconciler
// pipeline shape.
package kanidm

import (
	"fmt"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
)

// validateSpec checks the cross-field invariants spec §3.3 and §4.5 step
// 1 require before any object is built, grounded on the teacher's
// Paused/spec-guard checks at the top of Reconcile: a spec that fails
// here is terminal (Ready=False, reason=Invalid) until the user edits it,
// never requeued.
func validateSpec(kanidm *kaniopv1beta1.Kanidm) error {
	names := make(map[string]bool, len(kanidm.Spec.ReplicaGroups))
	primaryNodes := 0
	writeReplicas := int32(0)
	hasMultipleGroups := len(kanidm.Spec.ReplicaGroups) > 1
	hasScaledGroup := false

	for _, group := range kanidm.Spec.ReplicaGroups {
		if names[group.Name] {
			return kaniopErrorsInvalid(fmt.Errorf("replica group name %q is duplicated", group.Name))
		}
		names[group.Name] = true

		if group.PrimaryNode {
			primaryNodes++
		}
		if group.Replicas > 1 {
			hasScaledGroup = true
		}
		switch group.Role {
		case "", kaniopv1beta1.ReplicaGroupRoleWriteReplica, kaniopv1beta1.ReplicaGroupRoleWriteReplicaNoUI:
			writeReplicas += group.Replicas
		}
	}

	externalNames := make(map[string]bool, len(kanidm.Spec.ExternalReplicationNodes))
	for _, node := range kanidm.Spec.ExternalReplicationNodes {
		if externalNames[node.Name] {
			return kaniopErrorsInvalid(fmt.Errorf("external replication node name %q is duplicated", node.Name))
		}
		externalNames[node.Name] = true

		if node.AutomaticRefresh && node.Type == kaniopv1beta1.ExternalReplicationPush {
			return kaniopErrorsInvalid(fmt.Errorf("external replication node %q: automaticRefresh requires type pull or mutual-pull, got push", node.Name))
		}
		if node.AutomaticRefresh {
			primaryNodes++
		}
	}

	if primaryNodes > 1 {
		return kaniopErrorsInvalid(fmt.Errorf("at most one replicaGroup may set primaryNode=true, got %d", primaryNodes))
	}

	usesReplication := hasMultipleGroups || hasScaledGroup || len(kanidm.Spec.ExternalReplicationNodes) > 0
	if usesReplication && !usesDurableStorage(kanidm) {
		return kaniopErrorsInvalid(fmt.Errorf("replication requires storage.volumeClaimTemplate; emptyDir/ephemeral storage loses replicated state on pod restart"))
	}

	if writeReplicas > 1 && !requiresSessionAffinity(kanidm) {
		return kaniopErrorsInvalid(fmt.Errorf("multiple write replicas require service session affinity; this is enforced automatically and should never fail validation"))
	}

	return nil
}

func kaniopErrorsInvalid(err error) error {
	return kanioperrors.WrapInvalid(err)
}

// usesDurableStorage reports whether the cluster's storage backend
// survives pod restarts, required once more than one replication
// participant exists (spec invariant "replication requires durable
// storage").
func usesDurableStorage(kanidm *kaniopv1beta1.Kanidm) bool {
	return kanidm.Spec.Storage != nil && kanidm.Spec.Storage.VolumeClaimTemplate != nil
}

// requiresSessionAffinity always returns true: the Service builder
// (service.go) unconditionally sets ClientIP session affinity once more
// than one write replica exists, so this invariant can never actually
// fail; it exists to document the requirement at the validation layer
// too, per spec §4.5 step 5 ("session affinity REQUIRED").
func requiresSessionAffinity(*kaniopv1beta1.Kanidm) bool { return true }
