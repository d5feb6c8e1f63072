package boltstore

import (
	"github.com/gatehousehq/gatehouse/internal/domain/actor"
	"github.com/gatehousehq/gatehouse/internal/domain/group"
	"github.com/gatehousehq/gatehouse/internal/domain/key"
	"github.com/gatehousehq/gatehouse/internal/domain/policy"
	"github.com/gatehousehq/gatehouse/internal/domain/role"
	"github.com/gatehousehq/gatehouse/internal/domain/target"
)

// Record encodings mirror filestore's: plain JSON-friendly structs, not
// meant to be stable across versions (spec §6).

type targetRecord struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Actions    []string            `json:"actions"`
	Attributes map[string][]string `json:"attributes"`
}

func targetToRecord(t *target.Target) targetRecord {
	return targetRecord{Name: t.Name, Typestr: t.Typestr, Actions: t.Actions.Slice(), Attributes: t.Attributes.ToStringSlices()}
}

func recordToTarget(r targetRecord) *target.Target {
	return target.New(r.Name, r.Typestr, r.Actions, r.Attributes)
}

type actorRecord struct {
	Name       string              `json:"name"`
	Typestr    string              `json:"typestr"`
	Attributes map[string][]string `json:"attributes"`
}

func actorToRecord(a *actor.Actor) actorRecord {
	return actorRecord{Name: a.Name, Typestr: a.Typestr, Attributes: a.Attributes.ToStringSlices()}
}

func recordToActor(r actorRecord) *actor.Actor {
	return actor.New(r.Name, r.Typestr, r.Attributes)
}

type roleRecord struct {
	Name   string   `json:"name"`
	Desc   string   `json:"desc"`
	Groups []string `json:"groups"`
}

func roleToRecord(r *role.Role) roleRecord {
	return roleRecord{Name: r.Name, Desc: r.Desc, Groups: r.Groups.Slice()}
}

func recordToRole(r roleRecord) *role.Role {
	out := role.New(r.Name, r.Desc)
	for _, g := range r.Groups {
		out.Groups.Add(g)
	}
	return out
}

type memberRecord struct {
	Typestr string `json:"typestr"`
	Name    string `json:"name"`
}

type groupRecord struct {
	Name    string         `json:"name"`
	Desc    string         `json:"desc"`
	Members []memberRecord `json:"members"`
	Roles   []string       `json:"roles"`
}

func groupToRecord(g *group.Group) groupRecord {
	members := make([]memberRecord, 0, len(g.Members))
	for m := range g.Members {
		members = append(members, memberRecord{Typestr: m.Typestr, Name: m.Name})
	}
	return groupRecord{Name: g.Name, Desc: g.Desc, Members: members, Roles: g.Roles.Slice()}
}

func recordToGroup(r groupRecord) *group.Group {
	out := group.New(r.Name, r.Desc)
	for _, m := range r.Members {
		out.Members.Add(key.New(m.Typestr, m.Name))
	}
	for _, ro := range r.Roles {
		out.Roles.Add(ro)
	}
	return out
}

type stringCheckRecord struct {
	Op     string   `json:"op"`
	Values []string `json:"values"`
}

func stringCheckToRecord(c *policy.StringCheck) *stringCheckRecord {
	if c == nil {
		return nil
	}
	op := "one_of"
	if c.Op == policy.StringNotOneOf {
		op = "not_one_of"
	}
	return &stringCheckRecord{Op: op, Values: c.Values}
}

func recordToStringCheck(r *stringCheckRecord) *policy.StringCheck {
	if r == nil {
		return nil
	}
	if r.Op == "not_one_of" {
		return policy.NotOneOf(r.Values...)
	}
	return policy.OneOf(r.Values...)
}

type kvCheckRecord struct {
	Op     string   `json:"op"`
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

func kvCheckToRecord(c policy.KvCheck) kvCheckRecord {
	op := "has"
	if c.Op == policy.KvHasNot {
		op = "has_not"
	}
	return kvCheckRecord{Op: op, Key: c.Key, Values: c.Values}
}

func recordToKvCheck(r kvCheckRecord) policy.KvCheck {
	if r.Op == "has_not" {
		return policy.HasNot(r.Key, r.Values...)
	}
	return policy.Has(r.Key, r.Values...)
}

func kvChecksToRecords(cs []policy.KvCheck) []kvCheckRecord {
	out := make([]kvCheckRecord, len(cs))
	for i, c := range cs {
		out[i] = kvCheckToRecord(c)
	}
	return out
}

func recordsToKvChecks(rs []kvCheckRecord) []policy.KvCheck {
	out := make([]policy.KvCheck, len(rs))
	for i, r := range rs {
		out[i] = recordToKvCheck(r)
	}
	return out
}

type numberCheckRecord struct {
	Op string `json:"op"`
	N  int    `json:"n"`
}

func numberCheckToRecord(c *policy.NumberCheck) *numberCheckRecord {
	if c == nil {
		return nil
	}
	var op string
	switch c.Op {
	case policy.NumberLessThan:
		op = "less_than"
	case policy.NumberMoreThan:
		op = "more_than"
	default:
		op = "equals"
	}
	return &numberCheckRecord{Op: op, N: c.N}
}

func recordToNumberCheck(r *numberCheckRecord) *policy.NumberCheck {
	if r == nil {
		return nil
	}
	switch r.Op {
	case "less_than":
		return policy.LessThan(r.N)
	case "more_than":
		return policy.MoreThan(r.N)
	default:
		return policy.Equals(r.N)
	}
}

type actorCheckRecord struct {
	Name   *stringCheckRecord `json:"name,omitempty"`
	Type   *stringCheckRecord `json:"type,omitempty"`
	Kv     []kvCheckRecord    `json:"kv,omitempty"`
	Bucket *numberCheckRecord `json:"bucket,omitempty"`
}

func actorCheckToRecord(c *policy.ActorCheck) *actorCheckRecord {
	if c == nil {
		return nil
	}
	return &actorCheckRecord{Name: stringCheckToRecord(c.Name), Type: stringCheckToRecord(c.Type), Kv: kvChecksToRecords(c.Kv), Bucket: numberCheckToRecord(c.Bucket)}
}

func recordToActorCheck(r *actorCheckRecord) *policy.ActorCheck {
	if r == nil {
		return nil
	}
	return &policy.ActorCheck{Name: recordToStringCheck(r.Name), Type: recordToStringCheck(r.Type), Kv: recordsToKvChecks(r.Kv), Bucket: recordToNumberCheck(r.Bucket)}
}

type targetCheckRecord struct {
	Name         *stringCheckRecord `json:"name,omitempty"`
	Type         *stringCheckRecord `json:"type,omitempty"`
	Kv           []kvCheckRecord    `json:"kv,omitempty"`
	MatchInActor []string           `json:"match_in_actor,omitempty"`
	MatchInEnv   []string           `json:"match_in_env,omitempty"`
	Action       *stringCheckRecord `json:"action,omitempty"`
}

func targetCheckToRecord(c *policy.TargetCheck) *targetCheckRecord {
	if c == nil {
		return nil
	}
	return &targetCheckRecord{
		Name: stringCheckToRecord(c.Name), Type: stringCheckToRecord(c.Type), Kv: kvChecksToRecords(c.Kv),
		MatchInActor: c.MatchInActor, MatchInEnv: c.MatchInEnv, Action: stringCheckToRecord(c.Action),
	}
}

func recordToTargetCheck(r *targetCheckRecord) *policy.TargetCheck {
	if r == nil {
		return nil
	}
	return &policy.TargetCheck{
		Name: recordToStringCheck(r.Name), Type: recordToStringCheck(r.Type), Kv: recordsToKvChecks(r.Kv),
		MatchInActor: r.MatchInActor, MatchInEnv: r.MatchInEnv, Action: recordToStringCheck(r.Action),
	}
}

type ruleRecord struct {
	Name          string             `json:"name"`
	Desc          string             `json:"desc"`
	ActorCheck    *actorCheckRecord  `json:"actor_check,omitempty"`
	EnvAttributes []kvCheckRecord    `json:"env_attributes,omitempty"`
	TargetCheck   *targetCheckRecord `json:"target_check,omitempty"`
	Decision      string             `json:"decision"`
}

func ruleToRecord(r *policy.Rule) ruleRecord {
	decision := "deny"
	if r.Decision == policy.Allow {
		decision = "allow"
	}
	return ruleRecord{Name: r.Name, Desc: r.Desc, ActorCheck: actorCheckToRecord(r.ActorCheck), EnvAttributes: kvChecksToRecords(r.EnvAttributes), TargetCheck: targetCheckToRecord(r.TargetCheck), Decision: decision}
}

func recordToRule(r ruleRecord) *policy.Rule {
	decision := policy.Deny
	if r.Decision == "allow" {
		decision = policy.Allow
	}
	return &policy.Rule{Name: r.Name, Desc: r.Desc, ActorCheck: recordToActorCheck(r.ActorCheck), EnvAttributes: recordsToKvChecks(r.EnvAttributes), TargetCheck: recordToTargetCheck(r.TargetCheck), Decision: decision}
}
