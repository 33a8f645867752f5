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

// ServiceAccountAPIToken describes one API token this service account
// should have issued, tracked by Label so the operator can tell
// additions from removals across reconciles.
type ServiceAccountAPIToken struct {
	// Label names this token; must be unique within the service account.
	// +kubebuilder:validation:MinLength=1
	Label string `json:"label"`
	// ReadWrite grants the token write access in addition to read.
	// +optional
	ReadWrite bool `json:"readWrite,omitempty"`
	// ExpiresAt sets an expiry for the issued token. Tokens never expire
	// when unset.
	// +optional
	ExpiresAt *metav1.Time `json:"expiresAt,omitempty"`
	// SecretName names the Secret the operator writes this token's value
	// into. Defaults to "<serviceaccount>-<label>-token" when empty.
	// +optional
	SecretName string `json:"secretName,omitempty"`
}

// KanidmServiceAccountSpec defines the desired state of a Kanidm service
// account entity.
type KanidmServiceAccountSpec struct {
	// KanidmRef names the Kanidm cluster this service account belongs to.
	KanidmRef KanidmRef `json:"kanidmRef"`

	// Name is the service account's short name within the cluster's
	// domain. Defaults to the KanidmServiceAccount resource's own name
	// when empty.
	// +optional
	Name string `json:"name,omitempty"`

	// DisplayName is the service account's human-readable display name.
	// +kubebuilder:validation:MinLength=1
	DisplayName string `json:"displayName"`

	// EntryManagedBy names the group or account SPN permitted to manage
	// this service account out-of-band of this CR.
	// +optional
	EntryManagedBy string `json:"entryManagedBy,omitempty"`

	// Groups lists the short names or SPNs of groups this service account
	// should be a member of.
	// +optional
	Groups []string `json:"groups,omitempty"`

	// Posix, when set, extends this service account with POSIX
	// attributes so it can run as a POSIX identity.
	// +optional
	Posix *PosixAttributes `json:"posix,omitempty"`

	// APITokens lists the API tokens this service account should have
	// issued. The operator issues tokens for entries not already
	// represented by a status.issuedTokens record and destroys issued
	// tokens whose Label was removed (spec invariant: API tokens are
	// write-once, so an edited token spec is treated as destroy-then-
	// reissue).
	// +optional
	APITokens []ServiceAccountAPIToken `json:"apiTokens,omitempty"`

	// PasswordGenerate, when true, has the operator generate a password
	// credential for this service account and write it to a Secret named
	// "<name>-kanidm-service-account-credentials". Defaults to false; the
	// operator never removes an already-generated credential just
	// because this is unset afterwards.
	// +optional
	PasswordGenerate bool `json:"passwordGenerate,omitempty"`
}

// IssuedAPIToken records one API token the operator has issued for this
// service account, so it can detect removals without re-reading the
// unrecoverable token value from Kanidm.
type IssuedAPIToken struct {
	// Label identifies the token this record corresponds to.
	Label string `json:"label"`
	// TokenID is Kanidm's identifier for the issued token, used to target
	// destruction.
	TokenID string `json:"tokenId"`
	// IssuedAt is when the operator issued this token.
	IssuedAt metav1.Time `json:"issuedAt"`
	// SpecHash fingerprints the ServiceAccountAPIToken spec this token
	// was issued from, so an edited entry (ReadWrite, ExpiresAt) can be
	// detected and treated as destroy-then-reissue even though its
	// Label is unchanged.
	// +optional
	SpecHash string `json:"specHash,omitempty"`
}

// KanidmServiceAccountStatus defines the observed state of a Kanidm
// service account entity.
type KanidmServiceAccountStatus struct {
	// ObservedGeneration is the .metadata.generation last reconciled by
	// the controller.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
	// UUID is the service account's stable Kanidm-assigned identifier,
	// once known.
	// +optional
	UUID string `json:"uuid,omitempty"`
	// IssuedTokens tracks the API tokens the operator has issued for this
	// service account.
	// +optional
	IssuedTokens []IssuedAPIToken `json:"issuedTokens,omitempty"`
	// CredentialsSecretName names the Secret the operator wrote a
	// generated password credential into, once spec.passwordGenerate has
	// caused one to be generated. Never cleared once set, even if
	// passwordGenerate is later unset, since the credential still exists
	// in Kanidm.
	// +optional
	CredentialsSecretName string `json:"credentialsSecretName,omitempty"`
	// Conditions represent the current state of this
	// KanidmServiceAccount.
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=kanidmserviceaccounts,scope=Namespaced,shortName=idmsvcacct
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=".metadata.creationTimestamp"

// KanidmServiceAccount is the Schema for the kanidmserviceaccounts API.
type KanidmServiceAccount struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmServiceAccountSpec   `json:"spec"`
	Status KanidmServiceAccountStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// KanidmServiceAccountList contains a list of KanidmServiceAccount.
type KanidmServiceAccountList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmServiceAccount `json:"items"`
}
