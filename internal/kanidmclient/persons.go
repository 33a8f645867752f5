package kanidmclient

import "context"

// Person is the subset of a Kanidm person account entry the Person
// controller diffs against desired state.
type Person struct {
	Name        string   `json:"name"`
	SPN         string   `json:"spn,omitempty"`
	UUID        string   `json:"uuid,omitempty"`
	DisplayName string   `json:"displayname,omitempty"`
	Mail        []string `json:"mail,omitempty"`
	LegalName   string   `json:"legalname,omitempty"`

	// AccountExpire/AccountValidFrom carry Kanidm's RFC3339-formatted
	// account validity window, surfaced so a converged reconcile can diff
	// against them instead of patching unconditionally whenever set.
	AccountExpire    string `json:"account_expire,omitempty"`
	AccountValidFrom string `json:"account_valid_from,omitempty"`
}

// CredentialStatus reports the state of a person's primary credential,
// used to decide whether a new credential-reset token must be issued
// (mirrors idm_person_account_get_credential_status).
type CredentialStatus struct {
	CredentialType string `json:"type,omitempty"`
}

// GetPerson fetches a person account by name.
func (c *Client) GetPerson(ctx context.Context, name string) (*Person, error) {
	var p Person
	if err := c.call(ctx, "GET", "/v1/person/"+name, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePerson creates a person account with the given display name
// (mirrors idm_person_account_create).
func (c *Client) CreatePerson(ctx context.Context, name, displayName string) error {
	body := map[string]any{"attrs": map[string]any{
		"name":        []string{name},
		"displayname": []string{displayName},
	}}
	return c.call(ctx, "POST", "/v1/person", body, nil)
}

// UpdatePerson applies a partial attribute patch to a person account
// (mirrors idm_person_account_update via perform_patch_request).
func (c *Client) UpdatePerson(ctx context.Context, name string, attrs map[string]any) error {
	return c.call(ctx, "PATCH", "/v1/person/"+name, map[string]any{"attrs": attrs}, nil)
}

// DeletePerson deletes a person account.
func (c *Client) DeletePerson(ctx context.Context, name string) error {
	return c.call(ctx, "DELETE", "/v1/person/"+name, nil, nil)
}

// UnixExtendPerson enables POSIX attributes on a person account, with an
// optional explicit GID and login shell.
func (c *Client) UnixExtendPerson(ctx context.Context, name string, gidnumber *int64, loginShell string) error {
	body := map[string]any{}
	if gidnumber != nil {
		body["gidnumber"] = *gidnumber
	}
	if loginShell != "" {
		body["shell"] = loginShell
	}
	return c.call(ctx, "POST", "/v1/person/"+name+"/_unix", body, nil)
}

// IssueCredentialResetToken requests a credential-reset intent token for
// a person account, valid for ttl seconds (mirrors
// idm_person_account_credential_update_intent).
func (c *Client) IssueCredentialResetToken(ctx context.Context, name string, ttlSeconds int64) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]any{"ttl": ttlSeconds}
	if err := c.call(ctx, "POST", "/v1/person/"+name+"/_credential/_update_intent", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// GetPersonCredentialStatus fetches the current credential status of a
// person account.
func (c *Client) GetPersonCredentialStatus(ctx context.Context, name string) (*CredentialStatus, error) {
	var status CredentialStatus
	if err := c.call(ctx, "GET", "/v1/person/"+name+"/_credential/_status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
