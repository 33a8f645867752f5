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

package v1beta1

import (
	corev1 "k8s.io/api/core/v1"
)

// KanidmRef names the parent Kanidm cluster an identity-entity CR
// belongs to (spec §3.2 "ClusterIdentity"). An empty Namespace resolves
// to the entity's own namespace, except for KanidmOAuth2Client, which
// may reference a Kanidm cluster in a different namespace when that
// cluster's oauth2ClientNamespaceSelector allows it.
type KanidmRef struct {
	// Name of the Kanidm cluster.
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`
	// Namespace of the Kanidm cluster. Defaults to this resource's own
	// namespace when empty.
	// +optional
	Namespace string `json:"namespace,omitempty"`
}

// ReplicaGroupRole controls how Kanidm treats pods in a replica group.
// +kubebuilder:validation:Enum=write_replica;write_replica_no_ui;read_replica
type ReplicaGroupRole string

const (
	ReplicaGroupRoleWriteReplica     ReplicaGroupRole = "write_replica"
	ReplicaGroupRoleWriteReplicaNoUI ReplicaGroupRole = "write_replica_no_ui"
	ReplicaGroupRoleReadReplica      ReplicaGroupRole = "read_replica"
)

// ReplicaGroup describes one StatefulSet's worth of Kanidm pods (spec
// §3.1 Kanidm.replicaGroups).
type ReplicaGroup struct {
	// Name of the replica group; must be unique within the Kanidm CR.
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`
	// Replicas is the number of pods in this StatefulSet.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=1
	Replicas int32 `json:"replicas"`
	// Role controls Kanidm's UI and write behavior for pods in this group.
	// +kubebuilder:default=write_replica
	Role ReplicaGroupRole `json:"role,omitempty"`
	// PrimaryNode marks this group as the replication primary. At most one
	// primaryNode may be set across replicaGroups and
	// externalReplicationNodes combined (spec invariant).
	// +optional
	PrimaryNode bool `json:"primaryNode,omitempty"`
	// Resources describes compute resource requirements for the kanidmd
	// container in this group.
	// +optional
	Resources corev1.ResourceRequirements `json:"resources,omitempty"`
	// Affinity is applied to pods in this group.
	// +optional
	Affinity *corev1.Affinity `json:"affinity,omitempty"`
	// Tolerations are applied to pods in this group.
	// +optional
	Tolerations []corev1.Toleration `json:"tolerations,omitempty"`
	// TopologySpreadConstraints are applied to pods in this group.
	// +optional
	Topology []corev1.TopologySpreadConstraint `json:"topology,omitempty"`
	// StatefulSetAnnotations are merged into the generated StatefulSet's
	// annotations.
	// +optional
	StatefulSetAnnotations map[string]string `json:"statefulSetAnnotations,omitempty"`
}

// ExternalReplicationType controls the direction of an external
// replication agreement.
// +kubebuilder:validation:Enum=mutual-pull;pull;push
type ExternalReplicationType string

const (
	ExternalReplicationMutualPull ExternalReplicationType = "mutual-pull"
	ExternalReplicationPull       ExternalReplicationType = "pull"
	ExternalReplicationPush       ExternalReplicationType = "push"
)

// ExternalReplicationNode describes a replication peer outside this
// Kanidm CR's own replica groups, typically another cluster (spec §3.1
// Kanidm.externalReplicationNodes).
type ExternalReplicationNode struct {
	// Name identifies this peer; must be unique within the Kanidm CR.
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`
	// Hostname is the peer's replication endpoint hostname.
	// +kubebuilder:validation:MinLength=1
	Hostname string `json:"hostname"`
	// Port is the peer's replication endpoint port.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=65535
	Port int32 `json:"port"`
	// CertificateSecretRef names a Secret in this namespace holding the
	// peer's replication TLS certificate.
	// +optional
	CertificateSecretRef *corev1.LocalObjectReference `json:"certificateSecretRef,omitempty"`
	// Type controls the direction of replication with this peer.
	// +kubebuilder:default=mutual-pull
	Type ExternalReplicationType `json:"type,omitempty"`
	// AutomaticRefresh marks this peer as one that pulls on a schedule
	// rather than requiring a manual refresh call. Implies Type is pull or
	// mutual-pull (spec invariant).
	// +optional
	AutomaticRefresh bool `json:"automaticRefresh,omitempty"`
}

// KanidmStorageKind selects which storage backend a Kanidm replica group
// uses for its data volume.
type KanidmStorage struct {
	// EmptyDir requests an ephemeral data volume.
	// +optional
	EmptyDir *corev1.EmptyDirVolumeSource `json:"emptyDir,omitempty"`
	// Ephemeral requests a generic ephemeral volume.
	// +optional
	Ephemeral *corev1.EphemeralVolumeSource `json:"ephemeral,omitempty"`
	// VolumeClaimTemplate requests a persistent volume via a
	// PersistentVolumeClaim template. Required when replication is in use
	// (spec invariant: "replication requires durable storage").
	// +optional
	VolumeClaimTemplate *corev1.PersistentVolumeClaim `json:"volumeClaimTemplate,omitempty"`
}

// KanidmServiceSpec controls the Kanidm Service resource.
type KanidmServiceSpec struct {
	// Type is the Kubernetes Service type.
	// +optional
	Type corev1.ServiceType `json:"type,omitempty"`
	// Annotations are merged into the generated Service's annotations.
	// +optional
	Annotations map[string]string `json:"annotations,omitempty"`
}

// KanidmIngressSpec controls the optional Kanidm Ingress resource.
type KanidmIngressSpec struct {
	// Annotations are merged into the generated Ingress's annotations.
	// +optional
	Annotations map[string]string `json:"annotations,omitempty"`
	// Class is the IngressClassName to use.
	// +optional
	Class *string `json:"class,omitempty"`
	// TLSSecretName overrides the TLS Secret used for the ingress host. When
	// empty, Kanidm.spec.tlsSecretName is used.
	// +optional
	TLSSecretName string `json:"tlsSecretName,omitempty"`
	// ExtraTLSHosts lists additional TLS SAN hostnames to route through this
	// ingress, beyond the cluster's own domain.
	// +optional
	ExtraTLSHosts []string `json:"extraTlsHosts,omitempty"`
}

// ConditionType enumerates the condition kinds surfaced on Kaniop CRs
// (spec §3.2, status envelope).
type ConditionType string

const (
	ConditionReady              ConditionType = "Ready"
	ConditionInitialized        ConditionType = "Initialized"
	ConditionUpdated            ConditionType = "Updated"
	ConditionProgressing        ConditionType = "Progressing"
	ConditionTLSValid           ConditionType = "TLSValid"
	ConditionReplicationHealthy ConditionType = "ReplicationHealthy"
	ConditionUpgrading          ConditionType = "Upgrading"
)

// PosixAttributes is the common POSIX attribute block shared by Group,
// Person, and ServiceAccount entities.
type PosixAttributes struct {
	// GIDNumber sets an explicit POSIX group ID. When unset, Kanidm
	// assigns one.
	// +optional
	GIDNumber *int64 `json:"gidnumber,omitempty"`
}
