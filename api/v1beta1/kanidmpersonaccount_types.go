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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// KanidmPersonAccountSpec defines the desired state of a Kanidm person
// account entity.
type KanidmPersonAccountSpec struct {
	// KanidmRef names the Kanidm cluster this person belongs to.
	KanidmRef KanidmRef `json:"kanidmRef"`

	// Name is the person's short name within the cluster's domain.
	// Defaults to the KanidmPersonAccount resource's own name when empty.
	// +optional
	Name string `json:"name,omitempty"`

	// DisplayName is the person's human-readable display name.
	// +kubebuilder:validation:MinLength=1
	DisplayName string `json:"displayName"`

	// Mail lists mail addresses associated with this person. The first
	// entry is treated as the primary address.
	// +optional
	Mail []string `json:"mail,omitempty"`

	// LegalName is the person's legal name, distinct from DisplayName.
	// +optional
	LegalName string `json:"legalName,omitempty"`

	// Groups lists the short names or SPNs of groups this person should
	// be a member of. The person controller does not reconcile this
	// field; group membership is converged only from
	// KanidmGroup.spec.members.
	// +optional
	Groups []string `json:"groups,omitempty"`

	// Posix, when set, extends this person with POSIX attributes and a
	// login shell.
	// +optional
	Posix *PersonPosixAttributes `json:"posix,omitempty"`

	// CredentialResetTokenTTL bounds how long a credential reset token
	// issued for this person remains valid.
	// +optional
	// +kubebuilder:default="1h"
	CredentialResetTokenTTL metav1.Duration `json:"credentialResetTokenTTL,omitempty"`

	// CredentialResetSecretName, when set, causes the operator to write
	// the most recently issued credential reset link into this Secret.
	// The link is not reported on Status, which records only the token's
	// expiry; with this field unset the link is not published anywhere.
	// +optional
	CredentialResetSecretName string `json:"credentialResetSecretName,omitempty"`

	// AccountExpire sets an expiry time after which Kanidm rejects
	// authentication for this account.
	// +optional
	AccountExpire *metav1.Time `json:"accountExpire,omitempty"`

	// AccountValidFrom sets a time before which Kanidm rejects
	// authentication for this account.
	// +optional
	AccountValidFrom *metav1.Time `json:"accountValidFrom,omitempty"`
}

// PersonPosixAttributes extends PosixAttributes with the fields specific
// to person accounts.
type PersonPosixAttributes struct {
	PosixAttributes `json:",inline"`
	// LoginShell sets the POSIX login shell path.
	// +optional
	LoginShell string `json:"loginShell,omitempty"`
}

// KanidmPersonAccountStatus defines the observed state of a Kanidm
// person account entity.
type KanidmPersonAccountStatus struct {
	// ObservedGeneration is the .metadata.generation last reconciled by
	// the controller.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
	// UUID is the person's stable Kanidm-assigned identifier, once known.
	// +optional
	UUID string `json:"uuid,omitempty"`
	// CredentialResetTokenExpiry reports when the most recently issued
	// credential reset token expires, if any is outstanding.
	// +optional
	CredentialResetTokenExpiry *metav1.Time `json:"credentialResetTokenExpiry,omitempty"`
	// Conditions represent the current state of this KanidmPersonAccount.
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=kanidmpersonaccounts,scope=Namespaced,shortName=idmperson
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=".metadata.creationTimestamp"

// KanidmPersonAccount is the Schema for the kanidmpersonaccounts API.
type KanidmPersonAccount struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmPersonAccountSpec   `json:"spec"`
	Status KanidmPersonAccountStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// KanidmPersonAccountList contains a list of KanidmPersonAccount.
type KanidmPersonAccountList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmPersonAccount `json:"items"`
}
