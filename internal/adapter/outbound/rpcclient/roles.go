package rpcclient

import (
	"context"
	"net/url"
)

// Role mirrors the wire shape of a role record.
type Role struct {
	Name   string   `json:"name"`
	Desc   string   `json:"desc"`
	Groups []string `json:"groups"`
}

// AddRole creates a role.
func (c *Client) AddRole(ctx context.Context, name, desc string) (*Role, error) {
	req := struct {
		Name string `json:"name"`
		Desc string `json:"desc"`
	}{name, desc}
	var out Role
	if err := c.do(ctx, "POST", "/v1/roles", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModifyRole updates a role's description.
func (c *Client) ModifyRole(ctx context.Context, name, desc string) (*Role, error) {
	req := struct {
		Name string `json:"name"`
		Desc string `json:"desc"`
	}{name, desc}
	var out Role
	if err := c.do(ctx, "PATCH", "/v1/roles", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveRole deletes a role by name.
func (c *Client) RemoveRole(ctx context.Context, name string) error {
	q := url.Values{"name": {name}}
	return c.do(ctx, "DELETE", "/v1/roles", q, nil, nil)
}

// GetRoles lists roles, optionally filtered by name.
func (c *Client) GetRoles(ctx context.Context, name string) ([]Role, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	var out []Role
	if err := c.do(ctx, "GET", "/v1/roles", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
