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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ImageVerificationSpec optionally requires a Sigstore signature on
// Kanidm.spec.image before the operator will roll it out.
type ImageVerificationSpec struct {
	// PublicKey is a PEM-encoded public key the image signature must
	// verify against. When unset, image verification is skipped.
	// +optional
	PublicKey string `json:"publicKey,omitempty"`
}

// KanidmSpec defines the desired state of a Kanidm cluster.
type KanidmSpec struct {
	// Domain is the DNS domain name of the server, used to build security
	// principal names such as "william@idm.example.com". Immutable after
	// creation (spec invariant).
	// +kubebuilder:validation:MinLength=1
	// +kubebuilder:validation:XValidation:rule="self == oldSelf",message="domain is immutable"
	Domain string `json:"domain"`

	// ReplicaGroups defines the StatefulSets that make up this cluster.
	// +kubebuilder:validation:MinItems=1
	// +kubebuilder:validation:MaxItems=100
	ReplicaGroups []ReplicaGroup `json:"replicaGroups"`

	// ExternalReplicationNodes lists replication peers outside this CR's
	// own replica groups.
	// +kubebuilder:validation:MaxItems=100
	// +optional
	ExternalReplicationNodes []ExternalReplicationNode `json:"externalReplicationNodes,omitempty"`

	// Image is the kanidmd container image. Defaults to the operator's
	// pinned Kanidm release when empty.
	// +optional
	Image string `json:"image,omitempty"`
	// ImagePullPolicy for the kanidmd container.
	// +optional
	ImagePullPolicy corev1.PullPolicy `json:"imagePullPolicy,omitempty"`
	// ImageVerification optionally requires a Sigstore signature check
	// before rolling out a new Image.
	// +optional
	ImageVerification *ImageVerificationSpec `json:"imageVerification,omitempty"`

	// PortName names the HTTPS port on the generated Service.
	// +kubebuilder:default=https
	// +optional
	PortName string `json:"portName,omitempty"`
	// LDAPPortName names the LDAP port on the generated Service. When
	// unset, the LDAP listener and its Service port are not configured.
	// +optional
	LDAPPortName string `json:"ldapPortName,omitempty"`

	// Env lists additional environment variables for the kanidmd
	// container.
	// +optional
	Env []corev1.EnvVar `json:"env,omitempty"`

	// Storage selects the data volume backend for every replica group.
	// +optional
	Storage *KanidmStorage `json:"storage,omitempty"`

	// TLSSecretName names the Secret holding the server's TLS certificate
	// and key. Defaults to "<name>-tls" when unset.
	// +optional
	TLSSecretName string `json:"tlsSecretName,omitempty"`

	// Service controls the cluster's primary Service.
	// +optional
	Service *KanidmServiceSpec `json:"service,omitempty"`
	// Ingress, when set, creates an Ingress routing to the cluster's
	// primary Service.
	// +optional
	Ingress *KanidmIngressSpec `json:"ingress,omitempty"`

	// SecurityContext is applied both as the Pod's securityContext and,
	// field-for-field where applicable, as the kanidmd container's
	// securityContext.
	// +optional
	SecurityContext *corev1.PodSecurityContext `json:"securityContext,omitempty"`

	// OAuth2ClientNamespaceSelector names the namespaces whose
	// KanidmOAuth2Client resources may reference this cluster across a
	// namespace boundary. No controller reads it: a KanidmOAuth2Client in
	// any namespace may reference this cluster, whatever its value.
	// +optional
	OAuth2ClientNamespaceSelector *metav1.LabelSelector `json:"oauth2ClientNamespaceSelector,omitempty"`
}

// ReplicationPeerStatus reports the last observed health of one
// replication peer (replica group primary or external node).
type ReplicationPeerStatus struct {
	// Name of the peer (replica group or external node name).
	Name string `json:"name"`
	// Healthy reports whether the last probe of this peer succeeded.
	Healthy bool `json:"healthy"`
	// LastProbeTime is when the peer was last probed.
	// +optional
	LastProbeTime *metav1.Time `json:"lastProbeTime,omitempty"`
}

// KanidmStatus defines the observed state of a Kanidm cluster.
type KanidmStatus struct {
	// ObservedGeneration is the .metadata.generation last reconciled by
	// the controller.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
	// Replicas is the desired total pod count across all replica groups.
	// +optional
	Replicas int32 `json:"replicas,omitempty"`
	// AvailableReplicas is the total ready pod count across all replica
	// groups.
	// +optional
	AvailableReplicas int32 `json:"availableReplicas,omitempty"`
	// CurrentVersion is the Kanidm version currently observed running.
	// +optional
	CurrentVersion string `json:"currentVersion,omitempty"`
	// Replication reports the last observed health of each replication
	// peer.
	// +optional
	Replication []ReplicationPeerStatus `json:"replication,omitempty"`
	// Conditions represent the current state of this Kanidm resource.
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=kanidms,scope=Namespaced,shortName=idm
// +kubebuilder:printcolumn:name="Desired",type=integer,JSONPath=".status.replicas"
// +kubebuilder:printcolumn:name="Ready",type=integer,JSONPath=".status.availableReplicas"
// +kubebuilder:printcolumn:name="Domain",type=string,JSONPath=".spec.domain"
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=".metadata.creationTimestamp"

// Kanidm is the Schema for the kanidms API.
type Kanidm struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmSpec   `json:"spec"`
	Status KanidmStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// KanidmList contains a list of Kanidm.
type KanidmList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Kanidm `json:"items"`
}
