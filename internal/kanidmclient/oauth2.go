package kanidmclient

import (
	"context"
	"sort"
	"strings"
)

// OAuth2Client is the subset of a Kanidm OAuth2 resource server entry
// the OAuth2 Client controller diffs against desired state. The boolean
// flags and scope/claim maps are surfaced here, the way the original's
// status.rs reads them straight off the entry's attrs, specifically so
// the controller can diff before mutating (spec §8, "reconcile performs
// zero mutating Kanidm calls once remote state matches spec") instead of
// writing them on every reconcile.
type OAuth2Client struct {
	Name        string   `json:"name"`
	UUID        string   `json:"uuid,omitempty"`
	DisplayName string   `json:"displayname,omitempty"`
	Origin      string   `json:"oauth2_rs_origin,omitempty"`
	RedirectURL []string `json:"oauth2_rs_origin_landing,omitempty"`
	Public      bool     `json:"oauth2_rs_public,omitempty"`

	StrictRedirectURL      bool `json:"oauth2_strict_redirect_uri,omitempty"`
	DisablePKCE            bool `json:"oauth2_allow_insecure_client_disable_pkce,omitempty"`
	PreferShortUsername    bool `json:"oauth2_prefer_short_username,omitempty"`
	AllowLocalhostRedirect bool `json:"oauth2_allow_localhost_redirect,omitempty"`
	LegacyCrypto           bool `json:"oauth2_jwt_legacy_crypto_enable,omitempty"`

	// RawScopeMaps/RawSupScopeMaps/RawClaimMaps carry Kanidm's wire-format
	// entries (e.g. `group: {"scope_a", "scope_b"}` for a scope map, as
	// returned for ATTR_OAUTH2_RS_SCOPE_MAP), parsed on demand by
	// ScopeMaps/SupScopeMaps/ClaimMaps.
	RawScopeMaps    []string `json:"oauth2_rs_scope_map,omitempty"`
	RawSupScopeMaps []string `json:"oauth2_rs_sup_scope_map,omitempty"`
	RawClaimMaps    []string `json:"oauth2_rs_claim_map,omitempty"`
}

// ScopeMap is a (group, scopes) pair attached to an OAuth2 resource
// server, matching the original's KanidmScopeMap.
type ScopeMap struct {
	Group  string
	Scopes []string
}

// ClaimMap is a (group, claim, values) triple attached to an OAuth2
// resource server.
type ClaimMap struct {
	Group  string
	Claim  string
	Values []string
}

// ScopeMaps parses RawScopeMaps into normalized ScopeMap values (lower-
// cased group, sorted scopes), mirroring the original's
// KanidmScopeMap::from paired with KanidmScopeMap::normalize.
func (c *OAuth2Client) ScopeMaps() []ScopeMap { return parseScopeMaps(c.RawScopeMaps) }

// SupScopeMaps parses RawSupScopeMaps the same way ScopeMaps does.
func (c *OAuth2Client) SupScopeMaps() []ScopeMap { return parseScopeMaps(c.RawSupScopeMaps) }

// ClaimMaps parses RawClaimMaps into normalized ClaimMap values,
// mirroring KanidmClaimMap::from/normalize.
func (c *OAuth2Client) ClaimMaps() []ClaimMap { return parseClaimMaps(c.RawClaimMaps) }

func parseScopeMaps(raw []string) []ScopeMap {
	maps := make([]ScopeMap, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			continue
		}
		group := strings.ToLower(strings.TrimSpace(parts[0]))
		scopes := parseQuotedSet(parts[1])
		sort.Strings(scopes)
		maps = append(maps, ScopeMap{Group: group, Scopes: scopes})
	}
	return maps
}

func parseClaimMaps(raw []string) []ClaimMap {
	maps := make([]ClaimMap, 0, len(raw))
	for _, s := range raw {
		parts := strings.SplitN(s, ":", 4)
		if len(parts) != 4 {
			continue
		}
		claim := parts[0]
		group := strings.ToLower(strings.TrimSpace(parts[1]))
		values := strings.Split(strings.Trim(strings.TrimSpace(parts[3]), `"`), ",")
		sort.Strings(values)
		maps = append(maps, ClaimMap{Group: group, Claim: claim, Values: values})
	}
	return maps
}

// parseQuotedSet extracts the comma-separated, quoted members of a
// "{"a", "b"}"-shaped set literal, the format Kanidm uses for a scope
// map's scope list.
func parseQuotedSet(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"`)
		if p != "" {
			values = append(values, p)
		}
	}
	return values
}

// CreatePublicOAuth2Client creates a public (PKCE, no client secret)
// OAuth2 resource server (mirrors idm_oauth2_rs_public_create).
func (c *Client) CreatePublicOAuth2Client(ctx context.Context, name, displayName, origin string) error {
	body := map[string]any{"name": name, "displayname": displayName, "origin": origin}
	return c.call(ctx, "POST", "/v1/oauth2/_public", body, nil)
}

// CreateBasicOAuth2Client creates a confidential OAuth2 resource server
// with a client secret (mirrors idm_oauth2_rs_basic_create).
func (c *Client) CreateBasicOAuth2Client(ctx context.Context, name, displayName, origin string) error {
	body := map[string]any{"name": name, "displayname": displayName, "origin": origin}
	return c.call(ctx, "POST", "/v1/oauth2/_basic", body, nil)
}

// GetOAuth2Client fetches an OAuth2 resource server by name.
func (c *Client) GetOAuth2Client(ctx context.Context, name string) (*OAuth2Client, error) {
	var client OAuth2Client
	if err := c.call(ctx, "GET", "/v1/oauth2/"+name, nil, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateOAuth2Client applies a partial attribute patch to an OAuth2
// resource server (mirrors idm_oauth2_rs_update).
func (c *Client) UpdateOAuth2Client(ctx context.Context, name string, attrs map[string]any) error {
	return c.call(ctx, "PATCH", "/v1/oauth2/"+name, map[string]any{"attrs": attrs}, nil)
}

// DeleteOAuth2Client deletes an OAuth2 resource server.
func (c *Client) DeleteOAuth2Client(ctx context.Context, name string) error {
	return c.call(ctx, "DELETE", "/v1/oauth2/"+name, nil, nil)
}

// GetOAuth2ClientSecret reads the generated client secret of a
// confidential OAuth2 resource server.
func (c *Client) GetOAuth2ClientSecret(ctx context.Context, name string) (string, error) {
	var resp struct {
		Secret string `json:"secret"`
	}
	if err := c.call(ctx, "GET", "/v1/oauth2/"+name+"/_basic_secret", nil, &resp); err != nil {
		return "", err
	}
	return resp.Secret, nil
}

// AddOAuth2RedirectOrigin adds one allowed redirect origin (mirrors
// idm_oauth2_client_add_origin).
func (c *Client) AddOAuth2RedirectOrigin(ctx context.Context, name, url string) error {
	return c.call(ctx, "POST", "/v1/oauth2/"+name+"/_attr/oauth2_rs_origin_landing", []string{url}, nil)
}

// RemoveOAuth2RedirectOrigin removes one allowed redirect origin
// (mirrors idm_oauth2_client_remove_origin).
func (c *Client) RemoveOAuth2RedirectOrigin(ctx context.Context, name, url string) error {
	return c.call(ctx, "DELETE", "/v1/oauth2/"+name+"/_attr/oauth2_rs_origin_landing/"+url, nil, nil)
}

// UpdateOAuth2ScopeMap creates or replaces a group's scope map entry
// (mirrors idm_oauth2_rs_update_scope_map).
func (c *Client) UpdateOAuth2ScopeMap(ctx context.Context, name, group string, scopes []string) error {
	body := map[string]any{"group": group, "scopes": scopes}
	return c.call(ctx, "POST", "/v1/oauth2/"+name+"/_scopemap/"+group, body, nil)
}

// DeleteOAuth2ScopeMap removes a group's scope map entry (mirrors
// idm_oauth2_rs_delete_scope_map).
func (c *Client) DeleteOAuth2ScopeMap(ctx context.Context, name, group string) error {
	return c.call(ctx, "DELETE", "/v1/oauth2/"+name+"/_scopemap/"+group, nil, nil)
}

// UpdateOAuth2SupScopeMap creates or replaces a group's unsupervised
// scope map entry.
func (c *Client) UpdateOAuth2SupScopeMap(ctx context.Context, name, group string, scopes []string) error {
	body := map[string]any{"group": group, "scopes": scopes}
	return c.call(ctx, "POST", "/v1/oauth2/"+name+"/_sup_scopemap/"+group, body, nil)
}

// DeleteOAuth2SupScopeMap removes a group's unsupervised scope map
// entry.
func (c *Client) DeleteOAuth2SupScopeMap(ctx context.Context, name, group string) error {
	return c.call(ctx, "DELETE", "/v1/oauth2/"+name+"/_sup_scopemap/"+group, nil, nil)
}

// UpdateOAuth2ClaimMap creates or replaces a group's claim map entry.
func (c *Client) UpdateOAuth2ClaimMap(ctx context.Context, name, claim, group string, values []string) error {
	body := map[string]any{"group": group, "values": values}
	return c.call(ctx, "POST", "/v1/oauth2/"+name+"/_claimmap/"+claim+"/"+group, body, nil)
}

// DeleteOAuth2ClaimMap removes a group's claim map entry.
func (c *Client) DeleteOAuth2ClaimMap(ctx context.Context, name, claim, group string) error {
	return c.call(ctx, "DELETE", "/v1/oauth2/"+name+"/_claimmap/"+claim+"/"+group, nil, nil)
}

// SetOAuth2StrictRedirectURL toggles strict-redirect-url enforcement.
func (c *Client) SetOAuth2StrictRedirectURL(ctx context.Context, name string, enabled bool) error {
	return c.setFlag(ctx, name, "oauth2_strict_redirect_uri", enabled)
}

// SetOAuth2DisablePKCE toggles PKCE enforcement (disabling is a
// deliberate, auditable opt-out).
func (c *Client) SetOAuth2DisablePKCE(ctx context.Context, name string, disabled bool) error {
	return c.setFlag(ctx, name, "oauth2_allow_insecure_client_disable_pkce", disabled)
}

// SetOAuth2PreferShortName toggles preferring the short username over
// the SPN in issued tokens.
func (c *Client) SetOAuth2PreferShortName(ctx context.Context, name string, enabled bool) error {
	return c.setFlag(ctx, name, "oauth2_prefer_short_username", enabled)
}

// SetOAuth2AllowLocalhostRedirect toggles allowing http://localhost
// redirect origins for native/CLI clients.
func (c *Client) SetOAuth2AllowLocalhostRedirect(ctx context.Context, name string, enabled bool) error {
	return c.setFlag(ctx, name, "oauth2_allow_localhost_redirect", enabled)
}

// SetOAuth2LegacyCrypto toggles RS256 signing for clients that cannot
// verify ES256 tokens.
func (c *Client) SetOAuth2LegacyCrypto(ctx context.Context, name string, enabled bool) error {
	return c.setFlag(ctx, name, "oauth2_jwt_legacy_crypto_enable", enabled)
}

func (c *Client) setFlag(ctx context.Context, name, attr string, enabled bool) error {
	if !enabled {
		return c.call(ctx, "DELETE", "/v1/oauth2/"+name+"/_attr/"+attr, nil, nil)
	}
	return c.call(ctx, "PUT", "/v1/oauth2/"+name+"/_attr/"+attr, []string{"true"}, nil)
}
