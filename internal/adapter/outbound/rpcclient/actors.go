package rpcclient

import (
	"context"
	"net/url"
)

// Actor mirrors the wire shape of an actor record.
type Actor struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Bucket     int                 `json:"bucket"`
	Attributes map[string][]string `json:"attributes"`
}

// AddActor creates an actor.
func (c *Client) AddActor(ctx context.Context, name, typestr string, attrs map[string][]string) (*Actor, error) {
	req := struct {
		Name       string              `json:"name"`
		Typestr    string              `json:"typestr"`
		Attributes map[string][]string `json:"attributes"`
	}{name, typestr, attrs}
	var out Actor
	if err := c.do(ctx, "POST", "/v1/actors", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModifyActorRequest describes an actor attribute delta.
type ModifyActorRequest struct {
	Name             string              `json:"name"`
	Typestr          string              `json:"typestr"`
	AddAttributes    map[string][]string `json:"add_attributes,omitempty"`
	RemoveAttributes map[string][]string `json:"remove_attributes,omitempty"`
}

// ModifyActor applies req to an existing actor.
func (c *Client) ModifyActor(ctx context.Context, req ModifyActorRequest) (*Actor, error) {
	var out Actor
	if err := c.do(ctx, "PATCH", "/v1/actors", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveActor deletes an actor by name and type.
func (c *Client) RemoveActor(ctx context.Context, name, typestr string) error {
	q := url.Values{"name": {name}, "typestr": {typestr}}
	return c.do(ctx, "DELETE", "/v1/actors", q, nil, nil)
}

// GetActors lists actors, optionally filtered by name and/or type.
func (c *Client) GetActors(ctx context.Context, name, typestr string) ([]Actor, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if typestr != "" {
		q.Set("typestr", typestr)
	}
	var out []Actor
	if err := c.do(ctx, "GET", "/v1/actors", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
