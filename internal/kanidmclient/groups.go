package kanidmclient

import (
	"context"
	"fmt"
)

// Group is the subset of a Kanidm group entry the Group controller
// reads back to diff against desired state (spec §4.6).
type Group struct {
	Name           string   `json:"name"`
	SPN            string   `json:"spn,omitempty"`
	UUID           string   `json:"uuid,omitempty"`
	Members        []string `json:"member,omitempty"`
	Mail           []string `json:"mail,omitempty"`
	EntryManagedBy string   `json:"entry_managed_by,omitempty"`
}

// GetGroup fetches a group by name, returning a NotFound-classified
// error if it does not exist (mirrors the original idm_group_get).
func (c *Client) GetGroup(ctx context.Context, name string) (*Group, error) {
	var g Group
	if err := c.call(ctx, "GET", "/v1/group/"+name, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGroup creates a group, optionally setting entry_managed_by at
// creation time (mirrors idm_group_create).
func (c *Client) CreateGroup(ctx context.Context, name string, entryManagedBy string) error {
	body := map[string]any{"attrs": map[string]any{"name": []string{name}}}
	if entryManagedBy != "" {
		body["attrs"].(map[string]any)["entry_managed_by"] = []string{entryManagedBy}
	}
	return c.call(ctx, "POST", "/v1/group", body, nil)
}

// DeleteGroup deletes a group (mirrors idm_group_delete).
func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	return c.call(ctx, "DELETE", "/v1/group/"+name, nil, nil)
}

// SetGroupMembers overwrites a group's member list (mirrors
// idm_group_set_members), the Group controller's convergence primitive
// for membership diffing (spec §4.6 "idempotent attribute diffing").
func (c *Client) SetGroupMembers(ctx context.Context, name string, members []string) error {
	return c.patchAttr(ctx, "/v1/group/"+name+"/_attr/member", members)
}

// SetGroupMail overwrites a group's mail attribute.
func (c *Client) SetGroupMail(ctx context.Context, name string, mail []string) error {
	return c.patchAttr(ctx, "/v1/group/"+name+"/_attr/mail", mail)
}

// PurgeGroupMail clears a group's mail attribute.
func (c *Client) PurgeGroupMail(ctx context.Context, name string) error {
	return c.call(ctx, "DELETE", "/v1/group/"+name+"/_attr/mail", nil, nil)
}

// SetGroupEntryManagedBy sets the entry_managed_by attribute.
func (c *Client) SetGroupEntryManagedBy(ctx context.Context, name, entryManagedBy string) error {
	return c.patchAttr(ctx, "/v1/group/"+name+"/_attr/entry_managed_by", []string{entryManagedBy})
}

// UnixExtendGroup enables POSIX attributes on a group, with an optional
// explicit GID, mirroring idm_group_unix_extend.
func (c *Client) UnixExtendGroup(ctx context.Context, name string, gidnumber *int64) error {
	body := map[string]any{}
	if gidnumber != nil {
		body["gidnumber"] = *gidnumber
	}
	return c.call(ctx, "POST", "/v1/group/"+name+"/_unix", body, nil)
}

func (c *Client) patchAttr(ctx context.Context, path string, values []string) error {
	return c.call(ctx, "PUT", path, values, nil)
}

func (c *Client) purgeAttr(ctx context.Context, basePath, attr string) error {
	return c.call(ctx, "DELETE", fmt.Sprintf("%s/_attr/%s", basePath, attr), nil, nil)
}
