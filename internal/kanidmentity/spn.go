// Package kanidmentity holds helpers shared by the four identity-entity
// controllers (Group, Person, OAuth2Client, ServiceAccount), independent
// of any one entity's CRD type.
package kanidmentity

import "strings"

// SPN formats a Kanidm security principal name from a short account or
// group name and the cluster's domain, matching the "name@domain" form
// Kanidm uses everywhere a principal must be unambiguous (the original's
// entry_managed_by and group/account cross-references accept either
// form).
func SPN(name, domain string) string {
	if name == "" {
		return ""
	}
	if strings.Contains(name, "@") {
		return name
	}
	return name + "@" + domain
}

// ShortName strips a trailing "@domain" from a principal reference,
// returning the bare name Kanidm's REST API expects in a path segment
// (e.g. /v1/group/{name}).
func ShortName(principal string) string {
	if i := strings.IndexByte(principal, '@'); i >= 0 {
		return principal[:i]
	}
	return principal
}

// SameDomain reports whether an SPN belongs to the given domain.
func SameDomain(spn, domain string) bool {
	i := strings.IndexByte(spn, '@')
	if i < 0 {
		return true
	}
	return strings.EqualFold(spn[i+1:], domain)
}
