package rpcclient

import (
	"context"
	"net/url"
)

// StringCheck mirrors policy.StringCheck on the wire: Op is "one_of" or
// "not_one_of".
type StringCheck struct {
	Op     string   `json:"op"`
	Values []string `json:"values"`
}

// KvCheck mirrors policy.KvCheck on the wire: Op is "has" or "has_not".
type KvCheck struct {
	Op     string   `json:"op"`
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// NumberCheck mirrors policy.NumberCheck on the wire: Op is "equals",
// "less_than", or "more_than".
type NumberCheck struct {
	Op string `json:"op"`
	N  int    `json:"n"`
}

// ActorCheck mirrors policy.ActorCheck on the wire.
type ActorCheck struct {
	Name   *StringCheck `json:"name,omitempty"`
	Type   *StringCheck `json:"type,omitempty"`
	Kv     []KvCheck    `json:"kv,omitempty"`
	Bucket *NumberCheck `json:"bucket,omitempty"`
}

// TargetCheck mirrors policy.TargetCheck on the wire.
type TargetCheck struct {
	Name         *StringCheck `json:"name,omitempty"`
	Type         *StringCheck `json:"type,omitempty"`
	Kv           []KvCheck    `json:"kv,omitempty"`
	MatchInActor []string     `json:"match_in_actor,omitempty"`
	MatchInEnv   []string     `json:"match_in_env,omitempty"`
	Action       *StringCheck `json:"action,omitempty"`
}

// Policy mirrors the wire shape of a policy rule. Decision is "ALLOW" or
// "DENY".
type Policy struct {
	Name          string       `json:"name"`
	Desc          string       `json:"desc"`
	ActorCheck    *ActorCheck  `json:"actor_check,omitempty"`
	EnvAttributes []KvCheck    `json:"env_attributes,omitempty"`
	TargetCheck   *TargetCheck `json:"target_check,omitempty"`
	Decision      string       `json:"decision"`
}

// AddPolicy creates a policy rule.
func (c *Client) AddPolicy(ctx context.Context, p Policy) (*Policy, error) {
	var out Policy
	if err := c.do(ctx, "POST", "/v1/policies", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModifyPolicy replaces an existing policy rule by name.
func (c *Client) ModifyPolicy(ctx context.Context, p Policy) (*Policy, error) {
	var out Policy
	if err := c.do(ctx, "PATCH", "/v1/policies", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemovePolicy deletes a policy rule by name.
func (c *Client) RemovePolicy(ctx context.Context, name string) error {
	q := url.Values{"name": {name}}
	return c.do(ctx, "DELETE", "/v1/policies", q, nil, nil)
}

// GetPolicies lists policies, optionally filtered by name.
func (c *Client) GetPolicies(ctx context.Context, name string) ([]Policy, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	var out []Policy
	if err := c.do(ctx, "GET", "/v1/policies", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
