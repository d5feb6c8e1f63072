package rpcclient

import (
	"context"
	"net/url"
)

// Target mirrors the wire shape of a target record.
type Target struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Actions    []string            `json:"actions"`
	Attributes map[string][]string `json:"attributes"`
}

// AddTarget creates a target.
func (c *Client) AddTarget(ctx context.Context, name, typestr string, actions []string, attrs map[string][]string) (*Target, error) {
	req := Target{Name: name, Typestr: typestr, Actions: actions, Attributes: attrs}
	var out Target
	if err := c.do(ctx, "POST", "/v1/targets", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModifyTargetRequest describes a target attribute/action delta.
type ModifyTargetRequest struct {
	Name             string              `json:"name"`
	Typestr          string              `json:"typestr"`
	AddActions       []string            `json:"add_actions,omitempty"`
	RemoveActions    []string            `json:"remove_actions,omitempty"`
	AddAttributes    map[string][]string `json:"add_attributes,omitempty"`
	RemoveAttributes map[string][]string `json:"remove_attributes,omitempty"`
}

// ModifyTarget applies req to an existing target.
func (c *Client) ModifyTarget(ctx context.Context, req ModifyTargetRequest) (*Target, error) {
	var out Target
	if err := c.do(ctx, "PATCH", "/v1/targets", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveTarget deletes a target by name and type.
func (c *Client) RemoveTarget(ctx context.Context, name, typestr string) error {
	q := url.Values{"name": {name}, "typestr": {typestr}}
	return c.do(ctx, "DELETE", "/v1/targets", q, nil, nil)
}

// GetTargets lists targets, optionally filtered by name and/or type.
func (c *Client) GetTargets(ctx context.Context, name, typestr string) ([]Target, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if typestr != "" {
		q.Set("typestr", typestr)
	}
	var out []Target
	if err := c.do(ctx, "GET", "/v1/targets", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
