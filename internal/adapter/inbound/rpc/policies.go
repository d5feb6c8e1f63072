package rpc

import (
	"net/http"

	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/service"
)

type stringCheckDTO struct {
	Op     string   `json:"op"`
	Values []string `json:"values"`
}

func stringCheckToDTO(c *policy.StringCheck) *stringCheckDTO {
	if c == nil {
		return nil
	}
	op := "one_of"
	if c.Op == policy.StringNotOneOf {
		op = "not_one_of"
	}
	return &stringCheckDTO{Op: op, Values: c.Values}
}

func dtoToStringCheck(d *stringCheckDTO) *policy.StringCheck {
	if d == nil {
		return nil
	}
	if d.Op == "not_one_of" {
		return policy.NotOneOf(d.Values...)
	}
	return policy.OneOf(d.Values...)
}

type kvCheckDTO struct {
	Op     string   `json:"op"`
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

func kvChecksToDTO(cs []policy.KvCheck) []kvCheckDTO {
	out := make([]kvCheckDTO, len(cs))
	for i, c := range cs {
		op := "has"
		if c.Op == policy.KvHasNot {
			op = "has_not"
		}
		out[i] = kvCheckDTO{Op: op, Key: c.Key, Values: c.Values}
	}
	return out
}

func dtoToKvChecks(ds []kvCheckDTO) []policy.KvCheck {
	out := make([]policy.KvCheck, len(ds))
	for i, d := range ds {
		if d.Op == "has_not" {
			out[i] = policy.HasNot(d.Key, d.Values...)
		} else {
			out[i] = policy.Has(d.Key, d.Values...)
		}
	}
	return out
}

type numberCheckDTO struct {
	Op string `json:"op"`
	N  int    `json:"n"`
}

func numberCheckToDTO(c *policy.NumberCheck) *numberCheckDTO {
	if c == nil {
		return nil
	}
	op := "equals"
	switch c.Op {
	case policy.NumberLessThan:
		op = "less_than"
	case policy.NumberMoreThan:
		op = "more_than"
	}
	return &numberCheckDTO{Op: op, N: c.N}
}

func dtoToNumberCheck(d *numberCheckDTO) *policy.NumberCheck {
	if d == nil {
		return nil
	}
	switch d.Op {
	case "less_than":
		return policy.LessThan(d.N)
	case "more_than":
		return policy.MoreThan(d.N)
	default:
		return policy.Equals(d.N)
	}
}

type actorCheckDTO struct {
	Name   *stringCheckDTO `json:"name,omitempty"`
	Type   *stringCheckDTO `json:"type,omitempty"`
	Kv     []kvCheckDTO    `json:"kv,omitempty"`
	Bucket *numberCheckDTO `json:"bucket,omitempty"`
}

func actorCheckToDTO(ac *policy.ActorCheck) *actorCheckDTO {
	if ac == nil {
		return nil
	}
	return &actorCheckDTO{
		Name:   stringCheckToDTO(ac.Name),
		Type:   stringCheckToDTO(ac.Type),
		Kv:     kvChecksToDTO(ac.Kv),
		Bucket: numberCheckToDTO(ac.Bucket),
	}
}

func dtoToActorCheck(d *actorCheckDTO) *policy.ActorCheck {
	if d == nil {
		return nil
	}
	return &policy.ActorCheck{
		Name:   dtoToStringCheck(d.Name),
		Type:   dtoToStringCheck(d.Type),
		Kv:     dtoToKvChecks(d.Kv),
		Bucket: dtoToNumberCheck(d.Bucket),
	}
}

type targetCheckDTO struct {
	Name         *stringCheckDTO `json:"name,omitempty"`
	Type         *stringCheckDTO `json:"type,omitempty"`
	Kv           []kvCheckDTO    `json:"kv,omitempty"`
	MatchInActor []string        `json:"match_in_actor,omitempty"`
	MatchInEnv   []string        `json:"match_in_env,omitempty"`
	Action       *stringCheckDTO `json:"action,omitempty"`
}

func targetCheckToDTO(tc *policy.TargetCheck) *targetCheckDTO {
	if tc == nil {
		return nil
	}
	return &targetCheckDTO{
		Name:         stringCheckToDTO(tc.Name),
		Type:         stringCheckToDTO(tc.Type),
		Kv:           kvChecksToDTO(tc.Kv),
		MatchInActor: tc.MatchInActor,
		MatchInEnv:   tc.MatchInEnv,
		Action:       stringCheckToDTO(tc.Action),
	}
}

func dtoToTargetCheck(d *targetCheckDTO) *policy.TargetCheck {
	if d == nil {
		return nil
	}
	return &policy.TargetCheck{
		Name:         dtoToStringCheck(d.Name),
		Type:         dtoToStringCheck(d.Type),
		Kv:           dtoToKvChecks(d.Kv),
		MatchInActor: d.MatchInActor,
		MatchInEnv:   d.MatchInEnv,
		Action:       dtoToStringCheck(d.Action),
	}
}

type policyDTO struct {
	Name          string          `json:"name"`
	Desc          string          `json:"desc"`
	ActorCheck    *actorCheckDTO  `json:"actor_check,omitempty"`
	EnvAttributes []kvCheckDTO    `json:"env_attributes,omitempty"`
	TargetCheck   *targetCheckDTO `json:"target_check,omitempty"`
	Decision      string          `json:"decision"`
}

func policyToDTO(p *policy.Rule) policyDTO {
	return policyDTO{
		Name:          p.Name,
		Desc:          p.Desc,
		ActorCheck:    actorCheckToDTO(p.ActorCheck),
		EnvAttributes: kvChecksToDTO(p.EnvAttributes),
		TargetCheck:   targetCheckToDTO(p.TargetCheck),
		Decision:      p.Decision.String(),
	}
}

func dtoToPolicy(d policyDTO) *policy.Rule {
	decision := policy.Deny
	if d.Decision == "ALLOW" {
		decision = policy.Allow
	}
	return &policy.Rule{
		Name:          d.Name,
		Desc:          d.Desc,
		ActorCheck:    dtoToActorCheck(d.ActorCheck),
		EnvAttributes: dtoToKvChecks(d.EnvAttributes),
		TargetCheck:   dtoToTargetCheck(d.TargetCheck),
		Decision:      decision,
	}
}

func (s *Server) handleAddPolicy(w http.ResponseWriter, r *http.Request, op string) {
	var req policyDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.AddPolicy(r.Context(), dtoToPolicy(req))
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusCreated, policyToDTO(got))
}

func (s *Server) handleModifyPolicy(w http.ResponseWriter, r *http.Request, op string) {
	var req policyDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, op, s.metrics, badRequest(err))
		return
	}
	got, err := s.ds.ModifyPolicy(r.Context(), dtoToPolicy(req))
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	writeJSON(w, op, s.metrics, http.StatusOK, policyToDTO(got))
}

func (s *Server) handleRemovePolicy(w http.ResponseWriter, r *http.Request, op string) {
	name := r.URL.Query().Get("name")
	if err := s.ds.RemovePolicy(r.Context(), name); err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(op, "ok").Inc()
	}
}

func (s *Server) handleGetPolicies(w http.ResponseWriter, r *http.Request, op string) {
	q := r.URL.Query()
	filter := service.PolicyFilter{}
	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	got, err := s.ds.GetPolicies(filter)
	if err != nil {
		writeError(w, op, s.metrics, err)
		return
	}
	out := make([]policyDTO, len(got))
	for i, p := range got {
		out[i] = policyToDTO(p)
	}
	writeJSON(w, op, s.metrics, http.StatusOK, out)
}
