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

// OAuth2ClientType controls whether Kanidm issues a public (PKCE,
// no client secret) or basic (confidential, client-secret) OAuth2
// client registration.
// +kubebuilder:validation:Enum=public;basic
type OAuth2ClientType string

const (
	OAuth2ClientTypePublic OAuth2ClientType = "public"
	OAuth2ClientTypeBasic  OAuth2ClientType = "basic"
)

// OAuth2ScopeMapEntry maps a group to the OAuth2 scopes granted to its
// members when authenticating to this client.
type OAuth2ScopeMapEntry struct {
	// Group is the short name or SPN of the group this mapping applies to.
	// +kubebuilder:validation:MinLength=1
	Group string `json:"group"`
	// Scopes lists the OAuth2 scopes granted to members of Group.
	// +kubebuilder:validation:MinItems=1
	Scopes []string `json:"scopes"`
}

// OAuth2ClaimMapEntry maps a group to a custom OIDC claim value emitted
// for its members.
type OAuth2ClaimMapEntry struct {
	// Group is the short name or SPN of the group this mapping applies to.
	// +kubebuilder:validation:MinLength=1
	Group string `json:"group"`
	// Claim is the OIDC claim name.
	// +kubebuilder:validation:MinLength=1
	Claim string `json:"claim"`
	// Values lists the claim values issued to members of Group.
	// +kubebuilder:validation:MinItems=1
	Values []string `json:"values"`
	// JoinStrategy names how multiple Values are combined when a
	// principal matches more than one claim mapping for the same Claim.
	// The OAuth2 Client controller does not send it to Kanidm: claim maps
	// are written with group and values only.
	// +kubebuilder:validation:Enum=array;space;csv
	// +kubebuilder:default=array
	JoinStrategy string `json:"joinStrategy,omitempty"`
}

// KanidmOAuth2ClientSpec defines the desired state of a Kanidm OAuth2
// resource server registration.
type KanidmOAuth2ClientSpec struct {
	// KanidmRef names the Kanidm cluster this OAuth2 client belongs to.
	// May reference a cluster in any namespace; the cluster's
	// spec.oauth2ClientNamespaceSelector is not checked.
	KanidmRef KanidmRef `json:"kanidmRef"`

	// Name is the OAuth2 client's short name. Defaults to the
	// KanidmOAuth2Client resource's own name when empty.
	// +optional
	Name string `json:"name,omitempty"`

	// DisplayName is the client's human-readable display name.
	// +kubebuilder:validation:MinLength=1
	DisplayName string `json:"displayName"`

	// Origin is the redirect origin Kanidm uses to derive the default
	// redirect URL set (e.g. "https://app.example.com").
	// +kubebuilder:validation:MinLength=1
	Origin string `json:"origin"`

	// ClientType selects public (PKCE) or basic (confidential) client
	// registration. Immutable after creation (spec invariant: changing
	// client type requires recreating the registration).
	// +kubebuilder:validation:XValidation:rule="self == oldSelf",message="clientType is immutable"
	ClientType OAuth2ClientType `json:"clientType"`

	// ExtraRedirectOrigins lists additional redirect origins beyond Origin.
	// +optional
	ExtraRedirectOrigins []string `json:"extraRedirectOrigins,omitempty"`

	// ScopeMaps lists per-group OAuth2 scope grants.
	// +optional
	ScopeMaps []OAuth2ScopeMapEntry `json:"scopeMaps,omitempty"`

	// SupplementaryScopeMaps lists per-group OAuth2 scope grants added on
	// top of ScopeMaps, mirroring Kanidm's distinction between a client's
	// primary and supplementary scope maps.
	// +optional
	SupplementaryScopeMaps []OAuth2ScopeMapEntry `json:"supplementaryScopeMaps,omitempty"`

	// ClaimMaps lists per-group custom OIDC claim emission rules.
	// +optional
	ClaimMaps []OAuth2ClaimMapEntry `json:"claimMaps,omitempty"`

	// StrictRedirectURL, when true, disables Kanidm's default lenient
	// redirect URL matching for this client.
	// +optional
	StrictRedirectURL bool `json:"strictRedirectUrl,omitempty"`

	// DisablePKCE disables the PKCE requirement. Only meaningful for basic
	// clients; rejected for public clients (spec invariant).
	// +optional
	DisablePKCE bool `json:"disablePkce,omitempty"`

	// PreferShortUsername, when true, emits the account's short name
	// rather than its SPN as the OIDC "preferred_username" claim.
	// +optional
	PreferShortUsername bool `json:"preferShortUsername,omitempty"`

	// AllowLocalhostRedirect permits "localhost" as a redirect origin
	// regardless of Origin, matching Kanidm's native-app support.
	// +optional
	AllowLocalhostRedirect bool `json:"allowLocalhostRedirect,omitempty"`

	// LegacyCrypto enables RS256 token signing for clients that cannot
	// use Kanidm's default ES256.
	// +optional
	LegacyCrypto bool `json:"legacyCrypto,omitempty"`

	// ClientSecretSecretName names the Secret the operator writes the
	// generated client secret into, for basic clients. Defaults to
	// "<name>-oauth2" when empty. Ignored for public clients (spec
	// invariant: public clients have no secret).
	// +optional
	ClientSecretSecretName string `json:"clientSecretSecretName,omitempty"`

	// RotationSchedule is a cron expression controlling scheduled client
	// secret rotation, in addition to change- and annotation-triggered
	// rotation. Ignored for public clients. Empty disables scheduled
	// rotation.
	// +optional
	RotationSchedule string `json:"rotationSchedule,omitempty"`
}

// KanidmOAuth2ClientStatus defines the observed state of a Kanidm
// OAuth2 client registration.
type KanidmOAuth2ClientStatus struct {
	// ObservedGeneration is the .metadata.generation last reconciled by
	// the controller.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
	// ClientSecretRotatedAt records when the client secret Secret was
	// last written, used to evaluate RotationSchedule.
	// +optional
	ClientSecretRotatedAt *metav1.Time `json:"clientSecretRotatedAt,omitempty"`
	// Conditions represent the current state of this KanidmOAuth2Client.
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=kanidmoauth2clients,scope=Namespaced,shortName=idmoauth2
// +kubebuilder:printcolumn:name="Type",type=string,JSONPath=".spec.clientType"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=".metadata.creationTimestamp"

// KanidmOAuth2Client is the Schema for the kanidmoauth2clients API.
type KanidmOAuth2Client struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   KanidmOAuth2ClientSpec   `json:"spec"`
	Status KanidmOAuth2ClientStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// KanidmOAuth2ClientList contains a list of KanidmOAuth2Client.
type KanidmOAuth2ClientList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []KanidmOAuth2Client `json:"items"`
}
