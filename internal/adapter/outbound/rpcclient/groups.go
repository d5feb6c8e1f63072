package rpcclient

import (
	"context"
	"net/url"
)

// Member identifies a group member by (typestr, name).
type Member struct {
	Typestr string `json:"typestr"`
	Name    string `json:"name"`
}

// Group mirrors the wire shape of a group record.
type Group struct {
	Name    string   `json:"name"`
	Desc    string   `json:"desc"`
	Members []Member `json:"members"`
	Roles   []string `json:"roles"`
}

// AddGroup creates a group.
func (c *Client) AddGroup(ctx context.Context, name, desc string, members []Member, roles []string) (*Group, error) {
	req := struct {
		Name    string   `json:"name"`
		Desc    string   `json:"desc"`
		Members []Member `json:"members"`
		Roles   []string `json:"roles"`
	}{name, desc, members, roles}
	var out Group
	if err := c.do(ctx, "POST", "/v1/groups", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModifyGroupRequest describes a group membership/role/description delta.
type ModifyGroupRequest struct {
	Name          string   `json:"name"`
	Desc          *string  `json:"desc,omitempty"`
	AddMembers    []Member `json:"add_members,omitempty"`
	RemoveMembers []Member `json:"remove_members,omitempty"`
	AddRoles      []string `json:"add_roles,omitempty"`
	RemoveRoles   []string `json:"remove_roles,omitempty"`
}

// ModifyGroup applies req to an existing group.
func (c *Client) ModifyGroup(ctx context.Context, req ModifyGroupRequest) (*Group, error) {
	var out Group
	if err := c.do(ctx, "PATCH", "/v1/groups", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveGroup deletes a group by name.
func (c *Client) RemoveGroup(ctx context.Context, name string) error {
	q := url.Values{"name": {name}}
	return c.do(ctx, "DELETE", "/v1/groups", q, nil, nil)
}

// GroupQuery selects groups by name, membership, or role.
type GroupQuery struct {
	Name       string
	MemberName string
	MemberType string
	Role       string
}

// GetGroups lists groups matching q.
func (c *Client) GetGroups(ctx context.Context, q GroupQuery) ([]Group, error) {
	v := url.Values{}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if q.MemberName != "" {
		v.Set("member_name", q.MemberName)
	}
	if q.MemberType != "" {
		v.Set("member_type", q.MemberType)
	}
	if q.Role != "" {
		v.Set("role", q.Role)
	}
	var out []Group
	if err := c.do(ctx, "GET", "/v1/groups", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
