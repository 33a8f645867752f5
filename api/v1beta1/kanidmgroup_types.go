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

// KanidmGroupSpec defines the desired state of a Kanidm group entity.
type KanidmGroupSpec struct {
	// KanidmRef names the Kanidm cluster this group belongs to.
	KanidmRef KanidmRef `json:"kanidmRef"`

	// Name is the group's short name within the cluster's domain. Defaults
	// to the KanidmGroup resource's own name when empty.
	// +optional
	Name string `json:"name,omitempty"`

	// Members lists the short names or SPNs of accounts and groups that
	// belong to this group. Kanidm rejects SPNs outside the group's own
	// domain.
	// +optional
	Members []string `json:"members,omitempty"`

	// Mail lists mail addresses associated with this group.
	// +optional
	Mail []string `json:"mail,omitempty"`

	// EntryManagedBy names the group or account SPN permitted to manage
	// this group's membership out-of-band of this CR.
	// +optional
	EntryManagedBy string `json:"entryManagedBy,omitempty"`

	// Posix, when set, extends this group with POSIX attributes so it can
	// be used as a POSIX primary or supplementary group.
	// +optional
	Posix *PosixAttributes `json:"posix,omitempty"`
}

// KanidmGroupStatus defines the observed state of a Kanidm group entity.
type KanidmGroupStatus struct {
	// ObservedGeneration is the .metadata.generation last reconciled by
	// the controller.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
	// UUID is the group's stable Kanidm-assigned identifier, once known.
	// +optional
	UUID string `json:"uuid,omitempty"`
	// Conditions represent the current state of this KanidmGroup.
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=kanidmgroups,scope=Namespaced,shortName=idmgroup
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=".metadata.creationTimestamp"

// KanidmGroup is the Schema for the kanidmgroups API.
type KanidmGroup struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmGroupSpec   `json:"spec"`
	Status KanidmGroupStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// KanidmGroupList contains a list of KanidmGroup.
type KanidmGroupList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmGroup `json:"items"`
}
