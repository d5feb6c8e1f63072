package rpcclient

import "context"

// CheckRequest asks whether an actor may take an action on a target.
type CheckRequest struct {
	ActorName    string              `json:"actor_name"`
	ActorType    string              `json:"actor_type"`
	ActorAttrs   map[string][]string `json:"actor_attrs,omitempty"`
	EnvAttrs     map[string][]string `json:"env_attrs,omitempty"`
	TargetName   string              `json:"target_name"`
	TargetType   string              `json:"target_type"`
	TargetAction string              `json:"target_action"`
}

type checkResponse struct {
	Decision string `json:"decision"`
}

// Check evaluates req against the policy graph and returns "ALLOW" or
// "DENY".
func (c *Client) Check(ctx context.Context, req CheckRequest) (string, error) {
	var out checkResponse
	if err := c.do(ctx, "POST", "/v1/check", nil, req, &out); err != nil {
		return "", err
	}
	return out.Decision, nil
}
